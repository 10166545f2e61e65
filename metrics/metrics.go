// Package metrics exposes prometheus counters for authentication,
// authorization, fulfillment and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	RecordLogin(outcome string)
	RecordTokenRejected(kind string)
	RecordAuthzDecision(rule string, allowed bool)
	RecordFulfillment(outcome string, d time.Duration)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Collector is the prometheus implementation of Recorder.
type Collector struct {
	logins         *prometheus.CounterVec
	tokensRejected *prometheus.CounterVec
	authzDecisions *prometheus.CounterVec
	fulfillments   *prometheus.CounterVec
	fulfillLatency prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_logins_total",
			Help: "Login and registration attempts by outcome.",
		}, []string{"outcome"}),
		tokensRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_tokens_rejected_total",
			Help: "Bearer tokens rejected during verification, by error kind.",
		}, []string{"kind"}),
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_authz_decisions_total",
			Help: "Authorization decisions by deciding rule and effect.",
		}, []string{"rule", "effect"}),
		fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_fulfillment_requests_total",
			Help: "Orders submitted to the fulfillment service by outcome.",
		}, []string{"outcome"}),
		fulfillLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pizza_fulfillment_latency_seconds",
			Help:    "Latency of fulfillment submissions.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pizza_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.logins,
		c.tokensRejected,
		c.authzDecisions,
		c.fulfillments,
		c.fulfillLatency,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTokenRejected(kind string) {
	c.tokensRejected.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordAuthzDecision(rule string, allowed bool) {
	effect := "deny"
	if allowed {
		effect = "allow"
	}
	c.authzDecisions.WithLabelValues(rule, effect).Inc()
}

func (c *Collector) RecordFulfillment(outcome string, d time.Duration) {
	c.fulfillments.WithLabelValues(outcome).Inc()
	c.fulfillLatency.Observe(d.Seconds())
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry for prometheus scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Tests that do not inspect metrics use it.
type Nop struct{}

func (Nop) RecordLogin(string) {}
func (Nop) RecordTokenRejected(string) {}
func (Nop) RecordAuthzDecision(string, bool) {}
func (Nop) RecordFulfillment(string, time.Duration) {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
