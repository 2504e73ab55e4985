package arch

import (
	"encoding/binary"
	"fmt"
)

// Wire constants. These are persisted in released images and never change.
const (
	// TagPrimary and TagExtended are the two recognized header format
	// magics. They share the same fixed layout; the extended variant
	// reserves the RFU region for a structured wrapper record.
	TagPrimary  = 0x1CE9040A
	TagExtended = 0x1CE9140A

	// TagBootTrailer marks the secondary-boot extended trailer.
	TagBootTrailer = 0x1CEB72AB

	// ZipVersion1 is the compression sub-header version tag.
	ZipVersion1 = 0x1CE70100

	// RFUSize is the reserved region size. Together with the eight fixed
	// fields it pads the header to a 32-byte boundary.
	RFUSize = 0x120

	// HeaderSize is the total encoded header length: 8 x u32 + RFU.
	HeaderSize = 32 + RFUSize

	// ZipHeaderSize is the encoded compression sub-header length.
	ZipHeaderSize = 12

	kindIDMask   = 0x00FFFFFF
	zipModeShift = 24
)

// ZipMode selects the payload compression scheme, carried in the high
// 8 bits of the header file id.
type ZipMode uint8

const (
	ZipModeNone ZipMode = 0
	ZipModeZlib ZipMode = 1

	// ZipModeLast is the highest recognized mode. Values above it are
	// reported as unsupported, never silently clamped.
	ZipModeLast = ZipModeZlib
)

func (m ZipMode) String() string {
	switch m {
	case ZipModeNone:
		return "none"
	case ZipModeZlib:
		return "zlib"
	default:
		return fmt.Sprintf("ZipMode(%d)", uint8(m))
	}
}

// Sign types carried in the header sign_type field.
const (
	SignTypeSHA1    = 0 // digest only
	SignTypeSHA1RSA = 1 // digest plus asymmetric signature
)

// FileHeader is the decoded TLV archive header. Treat a decoded header
// as immutable; the codec never mutates one after returning it.
type FileHeader struct {
	Tag          uint32        // header format magic
	Length       uint32        // total header length including tag and length
	FileSize     uint32        // payload size including any trailing signature
	EntryAddress uint32        // execution address, meaningful for executable kinds only
	FileID       uint32        // packed kind id + compression mode, see PackFileID
	SignType     uint32        // SignTypeSHA1 or SignTypeSHA1RSA
	Checksum     uint32        // checksum over the TLV region, checksum field as zero
	KeyIndex     uint32        // key slot within the resolved key set
	RFU          [RFUSize]byte // reserved, must round-trip unmodified
}

// Kind returns the archive kind id packed into the file id.
func (h *FileHeader) Kind() Kind {
	return Kind(h.FileID & kindIDMask)
}

// ZipMode returns the compression mode packed into the file id. The value
// is raw; UnpackFileID reports out-of-range modes.
func (h *FileHeader) ZipMode() ZipMode {
	return ZipMode(h.FileID >> zipModeShift)
}

// ZipHeader is the optional compression sub-header, present at the start
// of the data region when the file id carries a non-none zip mode.
type ZipHeader struct {
	Version  uint32 // ZipVersion1
	Length   uint32 // sub-header length
	FileSize uint32 // compressed payload size, excluding padding
}

// PackFileID packs an archive kind id and a compression mode into the
// header file id field: low 24 bits kind, high 8 bits mode.
func PackFileID(kind Kind, mode ZipMode) (uint32, error) {
	if uint32(kind) > kindIDMask {
		return 0, fmt.Errorf("%w: 0x%08x", ErrKindOutOfRange, uint32(kind))
	}
	if mode > ZipModeLast {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedZipMode, uint8(mode))
	}
	return uint32(kind) | uint32(mode)<<zipModeShift, nil
}

// UnpackFileID is the inverse of PackFileID. A mode above ZipModeLast is
// reported as ErrUnsupportedZipMode alongside the raw values.
func UnpackFileID(v uint32) (Kind, ZipMode, error) {
	kind := Kind(v & kindIDMask)
	mode := ZipMode(v >> zipModeShift)
	if mode > ZipModeLast {
		return kind, mode, fmt.Errorf("%w: %d", ErrUnsupportedZipMode, uint8(mode))
	}
	return kind, mode, nil
}

// Codec performs bit-exact encode/decode of archive headers. The byte
// order must match the platform's native image tooling and comes from the
// platform profile, not from a hardcoded constant. Codec values are
// stateless and safe for concurrent use.
type Codec struct {
	order binary.ByteOrder
}

// NewCodec returns a codec using the given persisted-layout byte order.
func NewCodec(order binary.ByteOrder) Codec {
	if order == nil {
		order = binary.LittleEndian
	}
	return Codec{order: order}
}

// Order returns the codec's byte order.
func (c Codec) Order() binary.ByteOrder {
	return c.order
}

// NewFileHeader builds a structurally valid header. Validation happens
// here, at construction time, so Encode never fails. The checksum field
// is left zero; use Seal to compute and embed it.
func (c Codec) NewFileHeader(tag uint32, kind Kind, mode ZipMode, fileSize, entryAddress, signType, keyIndex uint32) (*FileHeader, error) {
	if tag != TagPrimary && tag != TagExtended {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, tag)
	}
	id, err := PackFileID(kind, mode)
	if err != nil {
		return nil, err
	}
	return &FileHeader{
		Tag:          tag,
		Length:       HeaderSize,
		FileSize:     fileSize,
		EntryAddress: entryAddress,
		FileID:       id,
		SignType:     signType,
		KeyIndex:     keyIndex,
	}, nil
}

// Encode serializes a header into its fixed 320-byte layout.
func (c Codec) Encode(h *FileHeader) []byte {
	buf := make([]byte, HeaderSize)
	c.order.PutUint32(buf[0:4], h.Tag)
	c.order.PutUint32(buf[4:8], h.Length)
	c.order.PutUint32(buf[8:12], h.FileSize)
	c.order.PutUint32(buf[12:16], h.EntryAddress)
	c.order.PutUint32(buf[16:20], h.FileID)
	c.order.PutUint32(buf[20:24], h.SignType)
	c.order.PutUint32(buf[24:28], h.Checksum)
	c.order.PutUint32(buf[28:32], h.KeyIndex)
	copy(buf[32:], h.RFU[:])
	return buf
}

// Decode deserializes a header from the front of data.
//
// On an unrecognized tag the decoded header is returned together with
// ErrBadMagic, so that callers holding a property record with the
// ignore-magic flag can override the failure. All other errors return a
// nil header.
func (c Codec) Decode(data []byte) (*FileHeader, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrHeaderTooShort, len(data), HeaderSize)
	}

	h := &FileHeader{
		Tag:          c.order.Uint32(data[0:4]),
		Length:       c.order.Uint32(data[4:8]),
		FileSize:     c.order.Uint32(data[8:12]),
		EntryAddress: c.order.Uint32(data[12:16]),
		FileID:       c.order.Uint32(data[16:20]),
		SignType:     c.order.Uint32(data[20:24]),
		Checksum:     c.order.Uint32(data[24:28]),
		KeyIndex:     c.order.Uint32(data[28:32]),
	}
	copy(h.RFU[:], data[32:HeaderSize])

	if h.Tag != TagPrimary && h.Tag != TagExtended {
		return h, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Tag)
	}
	if h.Length != HeaderSize {
		return nil, fmt.Errorf("%w: declared %d, layout requires %d", ErrLengthMismatch, h.Length, HeaderSize)
	}

	return h, nil
}

// Seal returns a copy of the header with its checksum computed over the
// encoded TLV region (checksum field as zero).
func (c Codec) Seal(h FileHeader, sum Checksummer) FileHeader {
	h.Checksum = 0
	h.Checksum = sum.Sum(c.Encode(&h))
	return h
}

// Payload returns the archive data region following the header: file_size
// bytes starting at the declared header length.
func (c Codec) Payload(raw []byte, h *FileHeader) ([]byte, error) {
	start := int64(h.Length)
	end := start + int64(h.FileSize)
	if end > int64(len(raw)) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedArchive, end, len(raw))
	}
	return raw[start:end], nil
}

// EncodeZipHeader serializes the compression sub-header.
func (c Codec) EncodeZipHeader(z *ZipHeader) []byte {
	buf := make([]byte, ZipHeaderSize)
	c.order.PutUint32(buf[0:4], z.Version)
	c.order.PutUint32(buf[4:8], z.Length)
	c.order.PutUint32(buf[8:12], z.FileSize)
	return buf
}

// DecodeZipHeader deserializes the compression sub-header from the front
// of a compressed data region.
func (c Codec) DecodeZipHeader(data []byte) (*ZipHeader, error) {
	if len(data) < ZipHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrZipHeaderTooShort, len(data), ZipHeaderSize)
	}
	z := &ZipHeader{
		Version:  c.order.Uint32(data[0:4]),
		Length:   c.order.Uint32(data[4:8]),
		FileSize: c.order.Uint32(data[8:12]),
	}
	if z.Version != ZipVersion1 {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadZipVersion, z.Version)
	}
	return z, nil
}
