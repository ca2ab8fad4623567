package transport

import (
	"io"
	"sync/atomic"
)

// CountingWriter wraps an io.Writer and counts bytes written through it.
// It is safe for concurrent reads of the count while writes are in progress.
type CountingWriter struct {
	w     io.Writer
	count int64
}

// NewCountingWriter returns a CountingWriter wrapping w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

// Write writes p to the underlying writer and adds the written byte count.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	atomic.AddInt64(&cw.count, int64(n))
	return n, err
}

// Count returns the total number of bytes written so far.
func (cw *CountingWriter) Count() int64 {
	return atomic.LoadInt64(&cw.count)
}

// CountingReader wraps an io.Reader and counts bytes read through it.
type CountingReader struct {
	r     io.Reader
	count int64
}

// NewCountingReader returns a CountingReader wrapping r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (cr *CountingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	atomic.AddInt64(&cr.count, int64(n))
	return n, err
}

// Count returns the total number of bytes read so far.
func (cr *CountingReader) Count() int64 {
	return atomic.LoadInt64(&cr.count)
}
