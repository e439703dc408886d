// Package metrics exposes Prometheus collectors for the booking engine and its HTTP surface.
// Every observer is safe to call on a nil receiver.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinic"

// Booking tracks slot generation, claims and status transitions.
type Booking struct {
	claimsTotal      *prometheus.CounterVec
	claimLatency     *prometheus.HistogramVec
	generationsTotal *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
}

func NewBooking(reg prometheus.Registerer) *Booking {
	m := &Booking{
		claimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "claims_total",
			Help:      "Slot claim attempts by outcome",
		}, []string{"outcome"}),
		claimLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "claim_duration_seconds",
			Help:      "Latency of slot claims including the transaction",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		generationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "slots",
			Name:      "generations_total",
			Help:      "Slot generation requests by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"to", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.claimsTotal, m.claimLatency, m.generationsTotal, m.transitionsTotal)
	return m
}

func (m *Booking) ObserveClaim(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.claimsTotal.WithLabelValues(outcome).Inc()
	m.claimLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *Booking) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Booking) ObserveTransition(to, result string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to, result).Inc()
}

// HTTP tracks request counts and latency per route pattern.
type HTTP struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTP) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}
