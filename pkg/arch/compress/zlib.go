package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	Register(&ZlibCodec{})
}

// ZlibCodec implements the one wire compression scheme, mode 0x01.
type ZlibCodec struct{}

func (z *ZlibCodec) Mode() uint8 {
	return ModeZlib
}

func (z *ZlibCodec) Name() string {
	return "ZLIB"
}

// Compress deflates the payload with the best-compression setting used
// by the image tooling.
func (z *ZlibCodec) Compress(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating zlib writer: %w", err)
	}

	if _, err := zw.Write(input); err != nil {
		zw.Close()
		return nil, fmt.Errorf("writing zlib data: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zlib writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates the payload and checks it against the expected raw
// size when one is supplied.
func (z *ZlibCodec) Decompress(input []byte, expectedSize uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("creating zlib reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("reading zlib data: %w", err)
	}

	if expectedSize != 0 && uint32(len(data)) != expectedSize {
		return nil, fmt.Errorf("zlib size mismatch: got %d bytes, expected %d", len(data), expectedSize)
	}

	return data, nil
}
