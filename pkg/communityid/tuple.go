package communityid

import (
	"bytes"
	"net/netip"

	"github.com/google/gopacket/layers"
)

// Field names used in errors raised by this package.
const (
	FieldSourceIP        = "source_ip"
	FieldSourcePort      = "source_port"
	FieldDestinationIP   = "destination_ip"
	FieldDestinationPort = "destination_port"
	FieldProtocol        = "protocol"
)

// Tuple is an unclassified 5-tuple as supplied by the caller.
type Tuple struct {
	SrcIP   netip.Addr
	SrcPort uint16
	DstIP   netip.Addr
	DstPort uint16
	Proto   uint8
}

// Reverse returns the tuple as seen by an observer on the other side.
func (t Tuple) Reverse() Tuple {
	return Tuple{
		SrcIP:   t.DstIP,
		SrcPort: t.DstPort,
		DstIP:   t.SrcIP,
		DstPort: t.SrcPort,
		Proto:   t.Proto,
	}
}

// Endpoint is one side of a FlowTuple. It is either a TransportEndpoint or an
// ICMPEndpoint.
type Endpoint interface {
	Addr() netip.Addr
	// Slot is the 16-bit value serialized in the endpoint's port position.
	Slot() uint16
	isEndpoint()
}

// TransportEndpoint is an address and a transport-layer port.
type TransportEndpoint struct {
	IP   netip.Addr
	Port uint16
}

func (e TransportEndpoint) Addr() netip.Addr { return e.IP }
func (e TransportEndpoint) Slot() uint16     { return e.Port }
func (TransportEndpoint) isEndpoint()        {}

// ICMPEndpoint is an address whose port position carries the ICMP type (on the
// source side) or code (on the destination side).
type ICMPEndpoint struct {
	IP       netip.Addr
	TypeCode uint16
}

func (e ICMPEndpoint) Addr() netip.Addr { return e.IP }
func (e ICMPEndpoint) Slot() uint16     { return e.TypeCode }
func (ICMPEndpoint) isEndpoint()        {}

// FlowTuple is a classified, immutable 5-tuple ready to be fingerprinted.
type FlowTuple struct {
	src    Endpoint
	dst    Endpoint
	proto  uint8
	oneWay bool
}

// NewFlowTuple validates t and classifies its endpoints by protocol. Both
// addresses must be valid and of the same family.
func NewFlowTuple(t Tuple) (FlowTuple, error) {
	if !t.SrcIP.IsValid() {
		return FlowTuple{}, MissingField(FieldSourceIP)
	}
	if !t.DstIP.IsValid() {
		return FlowTuple{}, MissingField(FieldDestinationIP)
	}
	src, dst := t.SrcIP.WithZone(""), t.DstIP.WithZone("")
	if src.Is4() != dst.Is4() {
		return FlowTuple{}, NewError(KindFamilyMismatch, FieldDestinationIP, dst.String(), nil)
	}

	if !isICMP(t.Proto) {
		return FlowTuple{
			src:   TransportEndpoint{IP: src, Port: t.SrcPort},
			dst:   TransportEndpoint{IP: dst, Port: t.DstPort},
			proto: t.Proto,
		}, nil
	}

	proto := t.Proto
	is6 := !src.Is4()
	if is6 {
		proto = uint8(layers.IPProtocolICMPv6)
	}
	return FlowTuple{
		src:    ICMPEndpoint{IP: src, TypeCode: t.SrcPort},
		dst:    ICMPEndpoint{IP: dst, TypeCode: t.DstPort},
		proto:  proto,
		oneWay: !HasCounterpart(is6, t.SrcPort),
	}, nil
}

// Src returns the first endpoint.
func (f FlowTuple) Src() Endpoint { return f.src }

// Dst returns the second endpoint.
func (f FlowTuple) Dst() Endpoint { return f.dst }

// Proto returns the protocol number that goes into the digest.
func (f FlowTuple) Proto() uint8 { return f.proto }

// OneWay reports whether direction normalization is skipped for this flow.
func (f FlowTuple) OneWay() bool { return f.oneWay }

// Is6 reports whether the tuple carries IPv6 addresses.
func (f FlowTuple) Is6() bool { return f.src != nil && !f.src.Addr().Is4() }

// Canonicalize orders the endpoints so that both directions of a flow yield
// the same tuple: the lower address first, the lower port first on a tie.
// One-way flows are returned unchanged.
func Canonicalize(f FlowTuple) FlowTuple {
	if f.oneWay {
		return f
	}
	switch bytes.Compare(f.src.Addr().AsSlice(), f.dst.Addr().AsSlice()) {
	case -1:
		return f
	case 1:
		f.src, f.dst = f.dst, f.src
		return f
	}
	if f.src.Slot() > f.dst.Slot() {
		f.src, f.dst = f.dst, f.src
	}
	return f
}

// ParseAddr parses s as an IPv4 or IPv6 address. Zoned IPv6 literals are
// rejected. field names the input in the returned error.
func ParseAddr(field, s string) (netip.Addr, error) {
	if s == "" {
		return netip.Addr{}, MissingField(field)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, NewError(KindUnparseableAddress, field, s, nil)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, NewError(KindUnparseableAddress, field, s, nil)
	}
	return addr, nil
}
