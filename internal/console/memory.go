package console

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"
)

// MemStatsReader abstracts runtime.ReadMemStats for tests.
type MemStatsReader interface {
	ReadMemStats(m *runtime.MemStats)
}

type runtimeMemStats struct{}

func (runtimeMemStats) ReadMemStats(m *runtime.MemStats) { runtime.ReadMemStats(m) }

// PressureMonitor watches process memory against GOMEMLIMIT and calls
// OnPressure when usage crosses Threshold. The console uses it to drop cached
// store data, which the next refresh refills.
type PressureMonitor struct {
	Threshold  float64 // fraction of GOMEMLIMIT, e.g. 0.8
	Interval   time.Duration
	OnPressure func(ratio float64)
	Stats      MemStatsReader
	Logger     *slog.Logger
}

// Ratio returns memory in use over GOMEMLIMIT, or 0 when no limit is set.
func (m *PressureMonitor) Ratio() float64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == int64(^uint64(0)>>1) {
		return 0
	}
	stats := m.Stats
	if stats == nil {
		stats = runtimeMemStats{}
	}
	var ms runtime.MemStats
	stats.ReadMemStats(&ms)
	return float64(ms.Sys-ms.HeapReleased) / float64(limit)
}

// Run polls until ctx is done.
func (m *PressureMonitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ratio := m.Ratio(); ratio > m.Threshold {
			logger.Warn("memory pressure, dropping cached store data", "ratio", ratio, "threshold", m.Threshold)
			if m.OnPressure != nil {
				m.OnPressure(ratio)
			}
		}
	}
}
