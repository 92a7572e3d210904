// Package metrics records client request and token refresh metrics with
// Prometheus. A Collector plugs into the client through its Hooks.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/NHSDigital/national-document-repository-go/pkg/ndr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ndr_client"

// Collector holds the client's Prometheus metrics
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	RefreshesTotal  *prometheus.CounterVec
	InFlight        prometheus.Gauge
}

// NewCollector creates the metrics and registers them on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API exchanges by method and status code.",
		}, []string{"method", "status_code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API exchanges in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status_code"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of API exchanges that got no response, by kind.",
		}, []string{"kind"}),
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Total number of access token refreshes by result.",
		}, []string{"result"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of API exchanges currently in progress.",
		}),
	}

	reg.MustRegister(c.RequestsTotal, c.RequestDuration, c.ErrorsTotal, c.RefreshesTotal, c.InFlight)
	return c
}

// Hooks returns client hooks that feed the collector. next, if non-nil,
// is called after each hook. Every OnRequest is followed by exactly one
// OnResponse or OnError; request build errors arrive without an OnRequest.
func (c *Collector) Hooks(next *ndr.Hooks) *ndr.Hooks {
	return &ndr.Hooks{
		OnRequest: func(ctx context.Context, req *http.Request) {
			c.InFlight.Inc()
			if next != nil && next.OnRequest != nil {
				next.OnRequest(ctx, req)
			}
		},
		OnResponse: func(ctx context.Context, resp *http.Response, duration time.Duration) {
			c.InFlight.Dec()
			method := http.MethodGet
			if resp.Request != nil {
				method = resp.Request.Method
			}
			status := strconv.Itoa(resp.StatusCode)
			c.RequestsTotal.WithLabelValues(method, status).Inc()
			c.RequestDuration.WithLabelValues(method, status).Observe(duration.Seconds())
			if next != nil && next.OnResponse != nil {
				next.OnResponse(ctx, resp, duration)
			}
		},
		OnError: func(ctx context.Context, err error) {
			kind := "unknown"
			started := true
			if apiErr, ok := err.(*ndr.Error); ok {
				kind = string(apiErr.Kind)
				started = apiErr.Code != ndr.CodeRequestBuild
			}
			if started {
				c.InFlight.Dec()
			}
			c.ErrorsTotal.WithLabelValues(kind).Inc()
			if next != nil && next.OnError != nil {
				next.OnError(ctx, err)
			}
		},
		OnRefresh: func(ctx context.Context, err error) {
			result := "success"
			if err != nil {
				result = "failure"
			}
			c.RefreshesTotal.WithLabelValues(result).Inc()
			if next != nil && next.OnRefresh != nil {
				next.OnRefresh(ctx, err)
			}
		},
	}
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves the metrics in reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
