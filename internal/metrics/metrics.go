package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on a private registry so that
// several servers (e.g. in tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	linkResolutions *prometheus.CounterVec
	renders         *prometheus.CounterVec
	captures        *prometheus.CounterVec
	captureDur      prometheus.Summary
	screens         prometheus.Gauge
	requests        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.linkResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventdetail",
		Name:      "link_resolutions_total",
		Help:      "Outbound link resolutions by link kind and result",
	}, []string{"kind", "result"})
	m.renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventdetail",
		Name:      "renders_total",
		Help:      "Rendered detail screens by display mode",
	}, []string{"mode"})
	m.captures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventdetail",
		Name:      "captures_total",
		Help:      "Headless preview captures by result",
	}, []string{"result"})
	m.captureDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "eventdetail",
		Name:      "capture_duration_seconds",
		Help:      "Time spent capturing one preview",
	})
	m.screens = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventdetail",
		Name:      "screens_live",
		Help:      "Viewer screens currently registered",
	})
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventdetail",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code",
	}, []string{"route", "code"})

	m.registry.MustRegister(
		m.linkResolutions,
		m.renders,
		m.captures,
		m.captureDur,
		m.screens,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) LinkResolved(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "invalid"
	}
	m.linkResolutions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Rendered(mode string) {
	m.renders.WithLabelValues(mode).Inc()
}

func (m *Metrics) Captured(ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.captures.WithLabelValues(result).Inc()
	m.captureDur.Observe(seconds)
}

func (m *Metrics) SetScreens(n int) {
	m.screens.Set(float64(n))
}

func (m *Metrics) Request(route string, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}
