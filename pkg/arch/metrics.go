package arch

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts resolver verdicts and dispatcher actions.
type Metrics interface {
	IncResolved(kind, verdict string)
	IncDispatched(kind, action string)
	IncDispatchFailed(kind, reason string)
}

// NoopMetrics implements Metrics without emitting anything.
type NoopMetrics struct{}

func (NoopMetrics) IncResolved(string, string)       {}
func (NoopMetrics) IncDispatched(string, string)     {}
func (NoopMetrics) IncDispatchFailed(string, string) {}

// PromMetrics implements Metrics backed by Prometheus counters.
type PromMetrics struct {
	resolved       *prometheus.CounterVec
	dispatched     *prometheus.CounterVec
	dispatchFailed *prometheus.CounterVec
}

// NewPromMetrics builds and registers the counters under the given
// namespace. Building a second instance with the same namespace reuses
// the already-registered counters instead of panicking.
func NewPromMetrics(namespace string) *PromMetrics {
	return &PromMetrics{
		resolved: registerCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_resolved_total",
			Help:      "Resolver verdicts by archive kind and verdict",
		}, []string{"kind", "verdict"}),
		dispatched: registerCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_dispatched_total",
			Help:      "Completed write/patch actions by archive kind",
		}, []string{"kind", "action"}),
		dispatchFailed: registerCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_dispatch_failures_total",
			Help:      "Failed write/patch actions by archive kind and reason",
		}, []string{"kind", "reason"}),
	}
}

func registerCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return cv
}

func (p *PromMetrics) IncResolved(kind, verdict string) {
	p.resolved.WithLabelValues(kind, verdict).Inc()
}

func (p *PromMetrics) IncDispatched(kind, action string) {
	p.dispatched.WithLabelValues(kind, action).Inc()
}

func (p *PromMetrics) IncDispatchFailed(kind, reason string) {
	p.dispatchFailed.WithLabelValues(kind, reason).Inc()
}
