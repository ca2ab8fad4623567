package view

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubeadapt/resource-insight/internal/observability"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

func samplePods() []model.Pod {
	return []model.Pod{
		{
			ClusterName:  "prod",
			PodName:      `api-"blue"`,
			Namespace:    "default",
			NodeName:     "node-1",
			MemoryUsage:  128 << 20,
			MemoryReqPct: 12.5,
			CPURequest:   500,
			CPUReqPct:    4,
			Status:       model.PodUnreasonable,
			Issues:       model.Tags{"内存利用率过低", "no_cpu_limit"},
		},
		{ClusterName: "dev", PodName: "worker", Namespace: "jobs"},
	}
}

func TestExportPods_Plain(t *testing.T) {
	var buf bytes.Buffer
	m := observability.NewMetrics()

	res, err := ExportPods(&buf, samplePods(), ExportOptions{Metrics: m})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, int64(buf.Len()), res.WrittenBytes)
	assert.Equal(t, res.RawBytes, res.WrittenBytes)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeffcluster_name,pod_name,"), "missing BOM or header")

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `"prod","api-""blue""","default","node-1","134217728","0","12.500",`))
	assert.True(t, strings.HasSuffix(lines[1], `"不合理","内存利用率过低; no_cpu_limit"`))
	assert.Equal(t, 16, strings.Count(lines[2], `","`)+1)

	assert.Equal(t, 1, testutil.CollectAndCount(m.ExportSizeBytes))
}

func TestExportPods_Zstd(t *testing.T) {
	var plain, packed bytes.Buffer
	pods := samplePods()
	for i := 0; i < 200; i++ {
		pods = append(pods, pods[0])
	}

	_, err := ExportPods(&plain, pods, ExportOptions{})
	require.NoError(t, err)

	m := observability.NewMetrics()
	res, err := ExportPods(&packed, pods, ExportOptions{Compress: true, Metrics: m})
	require.NoError(t, err)
	assert.Less(t, res.WrittenBytes, res.RawBytes)
	assert.Equal(t, int64(plain.Len()), res.RawBytes)
	assert.InDelta(t, res.Ratio(), testutil.ToFloat64(m.CompressionRatio), 1e-9)

	zr, err := zstd.NewReader(&packed)
	require.NoError(t, err)
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, plain.String(), string(decoded))
}
