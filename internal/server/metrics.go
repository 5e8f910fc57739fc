package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-fleet/internal/parking"
)

var (
	descLotCapacity = prometheus.NewDesc(
		"parking_lot_capacity",
		"Number of slots in each parking lot.",
		[]string{"lot", "lot_id"}, nil,
	)
	descLotOccupied = prometheus.NewDesc(
		"parking_lot_occupied_slots",
		"Number of occupied slots in each parking lot.",
		[]string{"lot", "lot_id"}, nil,
	)
	descLotLargeVehicles = prometheus.NewDesc(
		"parking_lot_large_vehicles",
		"Number of oversized vehicles placed in each parking lot.",
		[]string{"lot", "lot_id"}, nil,
	)
	descAttendantParked = prometheus.NewDesc(
		"parking_attendant_parked_vehicles",
		"Number of vehicles the attendant placed by round-robin or handicap parking.",
		nil, nil,
	)
)

type fleetCollector struct {
	fleet *parking.Fleet
}

var _ prometheus.Collector = &fleetCollector{}

// NewFleetCollector exposes per-lot occupancy read from the fleet at scrape
// time.
func NewFleetCollector(fleet *parking.Fleet) prometheus.Collector {
	return &fleetCollector{fleet: fleet}
}

func (c *fleetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descLotCapacity
	ch <- descLotOccupied
	ch <- descLotLargeVehicles
	ch <- descAttendantParked
}

func (c *fleetCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	for _, status := range c.fleet.Status(ctx) {
		labels := []string{strconv.Itoa(status.Number), status.ID}
		ch <- prometheus.MustNewConstMetric(descLotCapacity, prometheus.GaugeValue, float64(status.Capacity), labels...)
		ch <- prometheus.MustNewConstMetric(descLotOccupied, prometheus.GaugeValue, float64(status.Occupied), labels...)
		ch <- prometheus.MustNewConstMetric(descLotLargeVehicles, prometheus.GaugeValue, float64(status.LargeVehicles), labels...)
	}
	ch <- prometheus.MustNewConstMetric(descAttendantParked, prometheus.GaugeValue,
		float64(len(c.fleet.AttendantParked(ctx))))
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics() *httpMetrics {
	return &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// newRegistry keeps the server's metrics off the global default registry so
// several servers can live in one process.
func newRegistry(fleet *parking.Fleet, m *httpMetrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewFleetCollector(fleet),
		m.requests,
		m.duration,
	)
	return reg
}

func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
