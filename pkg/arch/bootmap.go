package arch

import "fmt"

// BootMapSize is the encoded boot map length: three u32 fields.
const BootMapSize = 12

// bootTrailerFixedSize covers the trailer magic and size fields.
const bootTrailerFixedSize = 8

// BootMap describes where a secondary-boot image's code must be placed:
// the bootROM copies IMEMSize bytes from DMEMLoad into instruction
// memory at IMEMStart. The map sits at the start of the secondary-boot
// data region and is consumed at boot time, before the full TLV header
// is necessarily available.
type BootMap struct {
	IMEMStart uint32 // destination address in instruction memory
	DMEMLoad  uint32 // load address in data memory
	IMEMSize  uint32 // size of the code to copy
}

// TrailerOffset returns where the extended trailer starts within the
// same data region: right after the map and the code it describes.
func (m BootMap) TrailerOffset() int {
	return BootMapSize + int(m.IMEMSize)
}

// BootTrailer is the secondary-boot extended trailer. Data is a
// non-owning view into the region the trailer was read from.
type BootTrailer struct {
	Magic uint32 // TagBootTrailer
	Size  uint32
	Data  []byte
}

// Valid reports whether the trailer carries the expected magic. The
// accessor itself performs no validation beyond bounds; callers on the
// header-unavailable fallback path use this to probe.
func (t BootTrailer) Valid() bool {
	return t.Magic == TagBootTrailer
}

// BootMapAt decodes the boot map from the start of a secondary-boot
// data region. The region is assumed to have been validated already
// when a header was present.
func (c Codec) BootMapAt(region []byte) (BootMap, error) {
	if len(region) < BootMapSize {
		return BootMap{}, fmt.Errorf("%w: %d bytes, need %d", ErrBootRegionTooShort, len(region), BootMapSize)
	}
	return BootMap{
		IMEMStart: c.order.Uint32(region[0:4]),
		DMEMLoad:  c.order.Uint32(region[4:8]),
		IMEMSize:  c.order.Uint32(region[8:12]),
	}, nil
}

// BootTrailerAt decodes the extended trailer at the given offset within
// a data region. The returned Data slice aliases the region.
func (c Codec) BootTrailerAt(region []byte, offset int) (BootTrailer, error) {
	if offset < 0 || offset+bootTrailerFixedSize > len(region) {
		return BootTrailer{}, fmt.Errorf("%w: trailer at %d, region %d bytes", ErrBootRegionTooShort, offset, len(region))
	}
	t := BootTrailer{
		Magic: c.order.Uint32(region[offset : offset+4]),
		Size:  c.order.Uint32(region[offset+4 : offset+8]),
	}
	start := offset + bootTrailerFixedSize
	end := start + int(t.Size)
	if end > len(region) {
		return BootTrailer{}, fmt.Errorf("%w: trailer data needs %d bytes, region %d", ErrBootRegionTooShort, end, len(region))
	}
	t.Data = region[start:end]
	return t, nil
}

// LocateBootTrailer reads the boot map and follows it to the extended
// trailer in one step, for callers holding only the raw data region.
func (c Codec) LocateBootTrailer(region []byte) (BootTrailer, error) {
	m, err := c.BootMapAt(region)
	if err != nil {
		return BootTrailer{}, err
	}
	return c.BootTrailerAt(region, m.TrailerOffset())
}
