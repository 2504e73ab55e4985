// Package arch implements the archive container engine for cellular
// modem firmware and configuration images: the TLV header codec with its
// optional compression sub-header, the fixed archive-kind property
// registry, the integrity and authentication policy resolver, and the
// patch/write dispatcher that applies per-kind semantics when programming
// an image.
//
// Cryptographic verification, decompression and the concrete binary-diff
// algorithm are consumed through narrow interfaces (Verifier,
// Decompressor, PatchHandler) and never implemented here.
package arch
