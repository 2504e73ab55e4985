package arch

import "encoding/binary"

// Checksummer computes the header integrity value over the encoded TLV
// region. The scope is the whole header with the checksum field zeroed;
// the algorithm itself is pluggable so that platforms with a different
// provider can substitute their own.
type Checksummer interface {
	Sum(tlv []byte) uint32
}

// WordSum is the default checksum: a 32-bit additive sum over the header
// words, matching the platform image tooling.
type WordSum struct {
	Order binary.ByteOrder
}

// NewWordSum returns the additive checksummer for the given byte order.
func NewWordSum(order binary.ByteOrder) WordSum {
	if order == nil {
		order = binary.LittleEndian
	}
	return WordSum{Order: order}
}

// Sum adds the TLV region word by word. The header layout is a multiple
// of four bytes; a trailing partial word is padded with zeros.
func (w WordSum) Sum(tlv []byte) uint32 {
	var sum uint32
	i := 0
	for ; i+4 <= len(tlv); i += 4 {
		sum += w.Order.Uint32(tlv[i : i+4])
	}
	if i < len(tlv) {
		var last [4]byte
		copy(last[:], tlv[i:])
		sum += w.Order.Uint32(last[:])
	}
	return sum
}
