package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for sync passes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	passes       *prometheus.CounterVec
	created      *prometheus.CounterVec
	itemFailures *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// MustNewMetrics registers the sync collectors with reg. Collectors that are
// already registered (a second orchestrator in the same process) are reused.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devnudge",
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Sync passes by provider and outcome.",
		}, []string{"provider", "outcome"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devnudge",
			Subsystem: "sync",
			Name:      "reminders_created_total",
			Help:      "Reminders created by sync passes.",
		}, []string{"provider"}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devnudge",
			Subsystem: "sync",
			Name:      "item_failures_total",
			Help:      "Candidate items skipped because of an error.",
		}, []string{"provider", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devnudge",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Wall time of a sync pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}

	m.passes = registerCounter(reg, m.passes)
	m.created = registerCounter(reg, m.created)
	m.itemFailures = registerCounter(reg, m.itemFailures)
	if err := reg.Register(m.duration); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		m.duration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		return already.ExistingCollector.(*prometheus.CounterVec)
	}
	return c
}

// ObservePass records one finished pass. outcome is "ok" or the error kind.
func (m *Metrics) ObservePass(provider, outcome string, created int, took time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(provider, outcome).Inc()
	m.created.WithLabelValues(provider).Add(float64(created))
	m.duration.WithLabelValues(provider).Observe(took.Seconds())
}

func (m *Metrics) IncItemFailure(provider, kind string) {
	if m == nil {
		return
	}
	m.itemFailures.WithLabelValues(provider, kind).Inc()
}
