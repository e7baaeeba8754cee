package lang

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultCached  = "cached"
)

// Metrics are Prometheus collectors counting parse and invocation outcomes.
type Metrics struct {
	Parses        *prometheus.CounterVec
	Invokes       *prometheus.CounterVec
	ParseDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg, which may
// be nil to leave them unregistered. Collectors already registered with reg
// by another interpreter are shared.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexpr",
			Name:      "parse_total",
			Help:      "Expressions parsed, by result (success, error, cached).",
		}, []string{"result"}),
		Invokes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexpr",
			Name:      "invoke_total",
			Help:      "Compiled expression invocations, by result.",
		}, []string{"result"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dexpr",
			Name:      "parse_duration_seconds",
			Help:      "Time to parse, bind, transform and compile an expression.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error

	if m.Parses, err = register(reg, m.Parses); err != nil {
		return nil, err
	}

	if m.Invokes, err = register(reg, m.Invokes); err != nil {
		return nil, err
	}

	if m.ParseDuration, err = register(reg, m.ParseDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, ErrConfiguration.Wrap(err)
	}

	return c, nil
}

// Collectors returns the collectors for registration with a custom registry.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Parses, m.Invokes, m.ParseDuration}
}

func (m *Metrics) parsed(result string, d time.Duration) {
	if m == nil {
		return
	}

	m.Parses.WithLabelValues(result).Inc()

	if result != ResultCached {
		m.ParseDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) invoked(err error) {
	if m == nil {
		return
	}

	if err != nil {
		m.Invokes.WithLabelValues(ResultError).Inc()

		return
	}

	m.Invokes.WithLabelValues(ResultSuccess).Inc()
}
