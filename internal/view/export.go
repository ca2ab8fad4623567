package view

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/internal/transport"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\ufeff"

var csvHeader = []string{
	"cluster_name", "pod_name", "namespace", "node_name",
	"memory_usage_bytes", "memory_request_bytes", "memory_req_pct", "memory_limit_bytes", "memory_limit_pct",
	"cpu_usage_millicores", "cpu_request_millicores", "cpu_req_pct", "cpu_limit_millicores", "cpu_limit_pct",
	"status", "issues",
}

// ExportOptions controls a CSV export.
type ExportOptions struct {
	Compress bool // zstd-compress the output
	Metrics  *observability.Metrics
}

// ExportResult describes a finished export.
type ExportResult struct {
	Rows         int
	RawBytes     int64
	WrittenBytes int64
}

// Ratio is written/raw bytes, 1 when the export was not compressed.
func (r ExportResult) Ratio() float64 {
	if r.RawBytes == 0 {
		return 1
	}
	return float64(r.WrittenBytes) / float64(r.RawBytes)
}

// ExportPods writes pods as CSV: a BOM, one header row and one row per pod
// with every field quoted.
func ExportPods(w io.Writer, pods []model.Pod, opts ExportOptions) (ExportResult, error) {
	wire := transport.NewCountingWriter(w)

	var sink io.Writer = wire
	var zw *zstd.Encoder
	if opts.Compress {
		var err error
		zw, err = zstd.NewWriter(wire, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return ExportResult{}, fmt.Errorf("export: zstd encoder: %w", err)
		}
		sink = zw
	}
	raw := transport.NewCountingWriter(sink)
	bw := bufio.NewWriter(raw)

	writeErr := writeCSV(bw, pods)
	if writeErr == nil {
		writeErr = bw.Flush()
	}
	if zw != nil {
		if err := zw.Close(); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("export: zstd close: %w", err)
		}
	}

	res := ExportResult{Rows: len(pods), RawBytes: raw.Count(), WrittenBytes: wire.Count()}
	if writeErr != nil {
		return res, writeErr
	}

	if m := opts.Metrics; m != nil {
		encoding := "identity"
		if opts.Compress {
			encoding = "zstd"
			m.CompressionRatio.Set(res.Ratio())
		}
		m.ExportSizeBytes.WithLabelValues(encoding).Observe(float64(res.WrittenBytes))
	}
	return res, nil
}

func writeCSV(w *bufio.Writer, pods []model.Pod) error {
	if _, err := w.WriteString(utf8BOM + strings.Join(csvHeader, ",") + "\n"); err != nil {
		return err
	}
	for _, p := range pods {
		if _, err := w.WriteString(csvRow(p) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func csvRow(p model.Pod) string {
	fields := []string{
		p.ClusterName,
		p.PodName,
		p.Namespace,
		p.NodeName,
		strconv.FormatInt(int64(p.MemoryUsage), 10),
		strconv.FormatInt(int64(p.MemoryRequest), 10),
		strconv.FormatFloat(p.MemoryReqPct, 'f', 3, 64),
		strconv.FormatInt(int64(p.MemoryLimit), 10),
		strconv.FormatFloat(p.MemoryLimitPct, 'f', 3, 64),
		strconv.FormatInt(int64(p.CPUUsage), 10),
		strconv.FormatInt(int64(p.CPURequest), 10),
		strconv.FormatFloat(p.CPUReqPct, 'f', 3, 64),
		strconv.FormatInt(int64(p.CPULimit), 10),
		strconv.FormatFloat(p.CPULimitPct, 'f', 3, 64),
		string(p.Status),
		strings.Join(p.Issues, "; "),
	}
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, ",")
}
