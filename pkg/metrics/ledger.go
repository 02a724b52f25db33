package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records outcomes of ledger transaction applies.
type LedgerMetrics struct {
	duration *prometheus.HistogramVec
	applied  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_apply_duration_seconds",
		Help:    "Duration of ledger transaction applies in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"direction"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_applied_total",
		Help: "Ledger transactions committed, by direction.",
	}, []string{"direction"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_rejected_total",
		Help: "Ledger transactions rejected, by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, applied, rejected)
	return &LedgerMetrics{
		duration: duration,
		applied:  applied,
		rejected: rejected,
	}
}

// ObserveApply records the duration of an apply for the given direction.
func (l *LedgerMetrics) ObserveApply(direction string, duration time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	l.duration.WithLabelValues(normalizeLabel(direction)).Observe(duration.Seconds())
}

// IncApplied increments the applied counter for the given direction.
func (l *LedgerMetrics) IncApplied(direction string) {
	if l == nil || l.applied == nil {
		return
	}
	l.applied.WithLabelValues(normalizeLabel(direction)).Inc()
}

// IncRejected increments the rejected counter for the given reason.
func (l *LedgerMetrics) IncRejected(reason string) {
	if l == nil || l.rejected == nil {
		return
	}
	l.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
