package metrics

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mias_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mias_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// BarcodeParsesTotal counts license scans by result: success, format_error, internal_error.
	BarcodeParsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mias_barcode_parses_total",
			Help: "Total number of driver's license barcode parses",
		},
		[]string{"result"},
	)

	BarcodeScanBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mias_barcode_scan_bytes",
			Help:    "Size of raw barcode payloads",
			Buckets: []float64{64, 128, 256, 512, 1024, 2048, 4096},
		},
	)

	PatientsRegisteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mias_patients_registered_total",
			Help: "Total number of patient registrations, labeled by source",
		},
		[]string{"source"}, // source: scan, manual
	)

	// EmergencyAccessTotal counts QR token lookups by result: granted, denied, error.
	EmergencyAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mias_emergency_access_total",
			Help: "Total number of emergency token lookups",
		},
		[]string{"result"},
	)
)

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// StatusLabel collapses a status code into its class for low-cardinality labels.
func StatusLabel(code int) string {
	switch {
	case code >= http.StatusInternalServerError:
		return "5xx"
	case code >= http.StatusBadRequest:
		return "4xx"
	case code >= http.StatusMultipleChoices:
		return "3xx"
	default:
		return "2xx"
	}
}
