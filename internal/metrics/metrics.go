// Package metrics описывает метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор счётчиков и гистограмм сервиса.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Registrations prometheus.Counter
	Joins         *prometheus.CounterVec
	Settlements   *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betting_rank",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "betting_rank",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "betting_rank",
			Name:      "registrations_total",
			Help:      "Successfully registered accounts.",
		}),
		Joins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betting_rank",
			Name:      "competition_joins_total",
			Help:      "Competition join attempts by result.",
		}, []string{"result"}),
		Settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betting_rank",
			Name:      "settlements_total",
			Help:      "Consumed settlement messages by result.",
		}, []string{"result"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "betting_rank",
			Name:      "cache_lookups_total",
			Help:      "Projection cache lookups by projection and result.",
		}, []string{"projection", "result"}),
	}
}

// NewNoop возвращает метрики в собственном реестре, который никто не читает.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}
