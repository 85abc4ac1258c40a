package host

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/svg-raster/errors"
)

// Metrics instruments a Renderer. A nil *Metrics records nothing.
type Metrics struct {
	renders    *prometheus.CounterVec
	duration   prometheus.Histogram
	outputSize prometheus.Histogram
	cacheHits  prometheus.Counter
}

// NewMetrics creates the renderer collectors and registers them with reg,
// if it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "svgraster",
			Name:      "renders_total",
			Help:      "Total renders by result: ok or the error kind.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "svgraster",
			Name:      "render_duration_seconds",
			Help:      "Time spent in render calls, including staging and copying out.",
			// 100us to about 26s.
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		outputSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "svgraster",
			Name:      "output_size_bytes",
			Help:      "Size of PNG outputs.",
			// 256B to 64MB.
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "svgraster",
			Name:      "render_cache_hits_total",
			Help:      "Renders answered from the output cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.renders, m.duration, m.outputSize, m.cacheHits)
	}
	return m
}

func (m *Metrics) observe(start time.Time, out []byte, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.renders.WithLabelValues(resultLabel(err)).Inc()
		return
	}
	m.renders.WithLabelValues("ok").Inc()
	m.outputSize.Observe(float64(len(out)))
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func resultLabel(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Kind != "" {
		return string(e.Kind)
	}
	return "error"
}
