package arch

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildBootRegion lays out a secondary-boot data region: boot map, code
// bytes, extended trailer.
func buildBootRegion(t *testing.T, order binary.ByteOrder, code, trailerData []byte) []byte {
	t.Helper()

	region := make([]byte, BootMapSize)
	order.PutUint32(region[0:4], 0x00100000)
	order.PutUint32(region[4:8], 0x40000000)
	order.PutUint32(region[8:12], uint32(len(code)))

	region = append(region, code...)

	trailer := make([]byte, bootTrailerFixedSize)
	order.PutUint32(trailer[0:4], TagBootTrailer)
	order.PutUint32(trailer[4:8], uint32(len(trailerData)))
	region = append(region, trailer...)
	return append(region, trailerData...)
}

func TestBootMapDecode(t *testing.T) {
	codec := testCodec()
	region := buildBootRegion(t, codec.Order(), []byte("boot code"), nil)

	m, err := codec.BootMapAt(region)
	if err != nil {
		t.Fatalf("BootMapAt failed: %v", err)
	}
	if m.IMEMStart != 0x00100000 || m.DMEMLoad != 0x40000000 {
		t.Errorf("boot map = %+v, addresses wrong", m)
	}
	if m.IMEMSize != uint32(len("boot code")) {
		t.Errorf("IMEM size = %d, want %d", m.IMEMSize, len("boot code"))
	}
	if m.TrailerOffset() != BootMapSize+len("boot code") {
		t.Errorf("trailer offset = %d, want map plus code", m.TrailerOffset())
	}
}

func TestBootMapTooShort(t *testing.T) {
	codec := testCodec()

	if _, err := codec.BootMapAt(make([]byte, BootMapSize-1)); !errors.Is(err, ErrBootRegionTooShort) {
		t.Errorf("BootMapAt(11 bytes) = %v, want ErrBootRegionTooShort", err)
	}
}

func TestLocateBootTrailer(t *testing.T) {
	codec := testCodec()
	trailerData := []byte("signature block")
	region := buildBootRegion(t, codec.Order(), []byte("code"), trailerData)

	trailer, err := codec.LocateBootTrailer(region)
	if err != nil {
		t.Fatalf("LocateBootTrailer failed: %v", err)
	}
	if !trailer.Valid() {
		t.Errorf("trailer magic = 0x%08x, want 0x%08x", trailer.Magic, uint32(TagBootTrailer))
	}
	if string(trailer.Data) != string(trailerData) {
		t.Errorf("trailer data = %q, want %q", trailer.Data, trailerData)
	}

	// Data must alias the region, not copy it.
	region[BootMapSize+len("code")+bootTrailerFixedSize] = 'X'
	if trailer.Data[0] != 'X' {
		t.Error("trailer data is a copy, want a view into the region")
	}
}

// TestBootTrailerProbe tests the fallback path: the accessor returns a
// trailer whose magic does not match, and Valid reports the mismatch
// instead of an error
func TestBootTrailerProbe(t *testing.T) {
	codec := testCodec()

	region := make([]byte, bootTrailerFixedSize)
	codec.Order().PutUint32(region[0:4], 0x11111111)

	trailer, err := codec.BootTrailerAt(region, 0)
	if err != nil {
		t.Fatalf("BootTrailerAt failed: %v", err)
	}
	if trailer.Valid() {
		t.Error("trailer with wrong magic reported valid")
	}
}

func TestBootTrailerBounds(t *testing.T) {
	codec := testCodec()
	region := buildBootRegion(t, codec.Order(), []byte("code"), []byte("data"))

	testCases := []struct {
		name   string
		offset int
	}{
		{"negative offset", -1},
		{"offset past region", len(region)},
		{"fixed part truncated", len(region) - bootTrailerFixedSize + 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := codec.BootTrailerAt(region, tc.offset); !errors.Is(err, ErrBootRegionTooShort) {
				t.Errorf("BootTrailerAt(%d) = %v, want ErrBootRegionTooShort", tc.offset, err)
			}
		})
	}

	// A declared size overrunning the region is also out of bounds.
	short := region[:len(region)-2]
	m, err := codec.BootMapAt(short)
	if err != nil {
		t.Fatalf("BootMapAt failed: %v", err)
	}
	if _, err := codec.BootTrailerAt(short, m.TrailerOffset()); !errors.Is(err, ErrBootRegionTooShort) {
		t.Errorf("BootTrailerAt with overrunning size = %v, want ErrBootRegionTooShort", err)
	}
}
