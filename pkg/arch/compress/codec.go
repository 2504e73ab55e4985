// Package compress implements the payload compression codecs selected by
// the archive header's zip mode. Codecs register themselves by mode id;
// the dispatcher looks them up when expanding a compressed data region.
package compress

import "fmt"

// Mode ids, matching the high 8 bits of the archive file id.
const (
	ModeNone uint8 = 0x00
	ModeZlib uint8 = 0x01
)

// Codec transforms a payload for one compression mode.
type Codec interface {
	// Mode returns the wire mode id.
	Mode() uint8

	// Name returns the human-readable name.
	Name() string

	// Compress compresses raw payload bytes.
	Compress(input []byte) ([]byte, error)

	// Decompress expands compressed bytes. expectedSize is the raw size
	// when the caller knows it (0 otherwise); a decoded size that
	// disagrees with a nonzero expectation is an error.
	Decompress(input []byte, expectedSize uint32) ([]byte, error)
}

// registry maps mode ids to implementations.
var registry = make(map[uint8]Codec)

// Register registers a codec implementation.
func Register(c Codec) {
	registry[c.Mode()] = c
}

// Get retrieves a codec by mode id.
func Get(mode uint8) (Codec, error) {
	c, ok := registry[mode]
	if !ok {
		return nil, fmt.Errorf("unknown compression mode: 0x%02x", mode)
	}
	return c, nil
}

// ModeName returns the name of a mode id.
func ModeName(mode uint8) string {
	switch mode {
	case ModeNone:
		return "NONE"
	case ModeZlib:
		return "ZLIB"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", mode)
	}
}
