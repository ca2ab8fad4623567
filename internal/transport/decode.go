package transport

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxBodyBytes caps a decoded response body.
const maxBodyBytes = 64 << 20

// readBody returns the decoded body and its size on the wire. zstd and gzip
// bodies are decompressed according to Content-Encoding.
func readBody(resp *http.Response) ([]byte, int64, error) {
	wire := NewCountingReader(resp.Body)

	var r io.Reader = wire
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "zstd":
		zr, err := zstd.NewReader(wire)
		if err != nil {
			return nil, 0, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case "gzip":
		gr, err := gzip.NewReader(wire)
		if err != nil {
			return nil, 0, fmt.Errorf("gzip reader: %w", err)
		}
		defer gr.Close()
		r = gr
	default:
		return nil, 0, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, wire.Count(), err
	}
	return body, wire.Count(), nil
}
