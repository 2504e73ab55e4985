package arch

// PatchHandler applies a patch-kind archive against an existing image.
// Apply receives the archive header and the expanded data region and
// answers 0 on success; any nonzero value is a failure code meaningful
// only to the handler. The concrete diff algorithm lives behind this
// contract, outside the engine.
type PatchHandler interface {
	Apply(hdr *FileHeader, data []byte) int32
}

// PatchHandlerFunc adapts a function to the PatchHandler interface.
type PatchHandlerFunc func(hdr *FileHeader, data []byte) int32

func (f PatchHandlerFunc) Apply(hdr *FileHeader, data []byte) int32 {
	return f(hdr, data)
}
