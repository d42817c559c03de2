package communityid

import "github.com/google/gopacket/layers"

// icmp4Pairs maps ICMPv4 types to their counterpart type. A type that is not a
// key here marks the flow as one-way.
var icmp4Pairs = map[uint16]uint16{
	layers.ICMPv4TypeEchoRequest:        layers.ICMPv4TypeEchoReply,
	layers.ICMPv4TypeEchoReply:          layers.ICMPv4TypeEchoRequest,
	layers.ICMPv4TypeTimestampRequest:   layers.ICMPv4TypeTimestampReply,
	layers.ICMPv4TypeTimestampReply:     layers.ICMPv4TypeTimestampRequest,
	layers.ICMPv4TypeInfoRequest:        layers.ICMPv4TypeInfoReply,
	layers.ICMPv4TypeInfoReply:          layers.ICMPv4TypeInfoRequest,
	layers.ICMPv4TypeRouterSolicitation: layers.ICMPv4TypeRouterAdvertisement,
	layers.ICMPv4TypeAddressMaskRequest: layers.ICMPv4TypeAddressMaskReply,
	layers.ICMPv4TypeAddressMaskReply:   layers.ICMPv4TypeAddressMaskRequest,
}

// icmp6Pairs is the ICMPv6 equivalent of icmp4Pairs.
var icmp6Pairs = map[uint16]uint16{
	layers.ICMPv6TypeEchoRequest:           layers.ICMPv6TypeEchoReply,
	layers.ICMPv6TypeEchoReply:             layers.ICMPv6TypeEchoRequest,
	layers.ICMPv6TypeRouterSolicitation:    layers.ICMPv6TypeRouterAdvertisement,
	layers.ICMPv6TypeRouterAdvertisement:   layers.ICMPv6TypeRouterSolicitation,
	layers.ICMPv6TypeNeighborSolicitation:  layers.ICMPv6TypeNeighborAdvertisement,
	layers.ICMPv6TypeNeighborAdvertisement: layers.ICMPv6TypeNeighborSolicitation,
	// Multicast listener query / report
	130: 131,
	131: 130,
	// Node information query / response
	139: 140,
	140: 139,
	// Home agent address discovery request / reply
	144: 145,
	145: 144,
}

// isICMP reports whether proto carries ICMP type/code in the port slots.
func isICMP(proto uint8) bool {
	return proto == uint8(layers.IPProtocolICMPv4) || proto == uint8(layers.IPProtocolICMPv6)
}

// HasCounterpart reports whether typ has a known request/reply counterpart in
// the table for the given address family.
func HasCounterpart(is6 bool, typ uint16) bool {
	if is6 {
		_, ok := icmp6Pairs[typ]
		return ok
	}
	_, ok := icmp4Pairs[typ]
	return ok
}
