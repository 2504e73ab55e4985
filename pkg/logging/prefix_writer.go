package logging

import (
	"bytes"
	"io"
)

// PrefixWriter decorates each complete log line with a fixed prefix.
// Bytes after the last newline are held back until the rest of the line
// arrives, so a prefix never lands mid-line.
type PrefixWriter struct {
	prefix  []byte
	w       io.Writer
	pending []byte
}

// NewPrefixWriter wraps w, prefixing every line written through it.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), w: w}
}

// Write implements io.Writer. Errors from the underlying writer are
// returned as-is; the pending partial line is kept for the next call.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.pending = append(pw.pending, p...)

	for {
		nl := bytes.IndexByte(pw.pending, '\n')
		if nl < 0 {
			return len(p), nil
		}
		if _, err := pw.w.Write(pw.prefix); err != nil {
			return len(p), err
		}
		if _, err := pw.w.Write(pw.pending[:nl+1]); err != nil {
			return len(p), err
		}
		pw.pending = pw.pending[nl+1:]
	}
}
