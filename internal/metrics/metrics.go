package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "openconsole_sessions_active",
			Help: "Number of registered console sessions",
		},
	)

	PromptsDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "openconsole_prompts_detected_total",
			Help: "Total interactive prompts detected in session output",
		},
	)

	OutputBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "openconsole_output_bytes_total",
			Help: "Total bytes of session output processed",
		},
	)

	SessionExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsole_session_exits_total",
			Help: "Total session process exits",
		},
		[]string{"status"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsole_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		PromptsDetectedTotal,
		OutputBytesTotal,
		SessionExitsTotal,
		HTTPRequestsTotal,
	)
}

// Handler returns the Prometheus metrics endpoint as an echo handler.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
