// Package metrics holds the Prometheus collectors for screening runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dipwatch"

type Metrics struct {
	Registry *prometheus.Registry

	// runs by outcome: ok, error
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge

	// upstream calls by endpoint: ticker, candles
	FetchDuration *prometheus.HistogramVec

	MarketsScanned  prometheus.Gauge
	MarketsSkipped  prometheus.Counter
	CandidatesFound prometheus.Gauge
	AlertsSent      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Screening runs by outcome",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full screening run",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream request duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		MarketsScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markets_scanned",
			Help:      "Markets evaluated in the last run",
		}),
		MarketsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markets_skipped_total",
			Help:      "Markets that failed the screen or lacked usable data",
		}),
		CandidatesFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Candidates that passed the screen in the last run",
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_sent_total",
			Help:      "Alerts delivered by sink",
		}, []string{"sink"}),
	}
	m.Registry.MustRegister(
		m.RunsTotal, m.RunDuration, m.LastSuccess, m.FetchDuration,
		m.MarketsScanned, m.MarketsSkipped, m.CandidatesFound, m.AlertsSent,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
