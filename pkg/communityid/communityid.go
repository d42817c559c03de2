// Package communityid computes direction-independent flow fingerprints
// ("community IDs") from a network 5-tuple.
//
// The digest input is, in order: the 2-byte seed, both addresses, the protocol
// byte, a zero pad byte and both port slots, all in network byte order. The
// output is "1:" followed by the base64 SHA-1 of that input.
package communityid

import (
	"crypto/sha1" //nolint:gosec // the version 1 format is defined over SHA-1
	"encoding/base64"
	"encoding/binary"
)

// Version prefixes every fingerprint produced by this package.
const Version = "1:"

// maxSerializedLen is the digest input size for an IPv6 tuple.
const maxSerializedLen = 2 + 16 + 16 + 1 + 1 + 2 + 2

// Serialize appends the digest input for f, in the order it appears, to a new
// buffer. f is serialized as given; callers wanting the direction-independent
// layout pass Canonicalize(f).
func Serialize(seed uint16, f FlowTuple) []byte {
	buf := make([]byte, 0, maxSerializedLen)
	buf = binary.BigEndian.AppendUint16(buf, seed)
	buf = append(buf, f.src.Addr().AsSlice()...)
	buf = append(buf, f.dst.Addr().AsSlice()...)
	buf = append(buf, f.proto, 0)
	buf = binary.BigEndian.AppendUint16(buf, f.src.Slot())
	buf = binary.BigEndian.AppendUint16(buf, f.dst.Slot())
	return buf
}

// Hasher computes fingerprints within one seed namespace. The zero value uses
// seed 0. A Hasher holds no mutable state and is safe for concurrent use.
type Hasher struct {
	Seed uint16
}

// New returns a Hasher for seed.
func New(seed uint16) Hasher {
	return Hasher{Seed: seed}
}

// Hash canonicalizes f and returns its fingerprint.
func (h Hasher) Hash(f FlowTuple) string {
	sum := sha1.Sum(Serialize(h.Seed, Canonicalize(f))) //nolint:gosec
	return Version + base64.StdEncoding.EncodeToString(sum[:])
}

// HashTuple classifies t and returns its fingerprint.
func (h Hasher) HashTuple(t Tuple) (string, error) {
	f, err := NewFlowTuple(t)
	if err != nil {
		return "", err
	}
	return h.Hash(f), nil
}

// Fingerprint parses both addresses and returns the fingerprint of the flow.
func (h Hasher) Fingerprint(srcIP string, srcPort uint16, dstIP string, dstPort uint16, proto uint8) (string, error) {
	src, err := ParseAddr(FieldSourceIP, srcIP)
	if err != nil {
		return "", err
	}
	dst, err := ParseAddr(FieldDestinationIP, dstIP)
	if err != nil {
		return "", err
	}
	return h.HashTuple(Tuple{SrcIP: src, SrcPort: srcPort, DstIP: dst, DstPort: dstPort, Proto: proto})
}
