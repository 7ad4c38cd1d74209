// Package metrics exposes Prometheus collectors for pipeline stages, the
// sentiment scorer, caches, and the reporting API.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperjump/reviewlens/internal/models"
)

const namespace = "reviewlens"

// TextfileName is the file a pipeline run leaves its metrics in, for the
// node_exporter textfile collector.
const TextfileName = "metrics.prom"

var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Pipeline stage duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	Records = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "records_total", Help: "Records seen per stage and outcome."},
		[]string{"stage", "outcome"},
	)
	SentimentScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sentiment_scored_total", Help: "Reviews scored per backend and label."},
		[]string{"backend", "label"},
	)
	SentimentFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "sentiment_fallbacks_total", Help: "Per-record primary backend failures recovered by the lexicon."},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets."},
		[]string{"cache", "event"}, // event: hit|miss|set|error
	)
	KPIMet = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "kpi_met", Help: "1 when the KPI target was met on the last run."},
		[]string{"kpi"},
	)
	KPIValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "kpi_value", Help: "Last observed KPI value."},
		[]string{"kpi"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// InitRegistry returns a registry holding every reviewlens collector.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(StageDuration, Records, SentimentScored, SentimentFallbacks,
		CacheEvents, KPIMet, KPIValue, HTTPRequests, HTTPLatency)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// WriteTextfile atomically writes everything g gathers to path in the
// Prometheus text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func ObserveStage(stage string, dur time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

func ObserveRecords(stage, outcome string, n int) {
	if n <= 0 {
		return
	}
	Records.WithLabelValues(stage, outcome).Add(float64(n))
}

func ObserveSentiment(backend string, label models.Label) {
	SentimentScored.WithLabelValues(backend, string(label)).Inc()
}

func ObserveFallback() { SentimentFallbacks.Inc() }

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveKPI(k models.KPI) {
	met := 0.0
	if k.Met {
		met = 1
	}
	KPIMet.WithLabelValues(k.Name).Set(met)
	KPIValue.WithLabelValues(k.Name).Set(k.Value)
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}
