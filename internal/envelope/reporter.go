package envelope

import (
	"log/slog"
	"time"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// LogReporter logs each mismatch as a warning, counts it and records it in
// the error collector. Any field may be nil.
type LogReporter struct {
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Collector *insighterrors.Collector
}

func (l LogReporter) Mismatch(d Descriptor, reason string) {
	if l.Logger != nil {
		l.Logger.Warn("response shape mismatch, using empty default",
			"endpoint", d.Name,
			"descriptor", d.String(),
			"reason", reason,
		)
	}
	if l.Metrics != nil {
		l.Metrics.ShapeMismatches.WithLabelValues(d.Name).Inc()
	}
	if l.Collector != nil {
		l.Collector.Report(insighterrors.APIError{
			Kind:      insighterrors.KindShape,
			Code:      insighterrors.ErrShapeMismatch,
			Message:   reason,
			Component: d.Name,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}
