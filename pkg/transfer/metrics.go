package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for transfer runs.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duoload_pages_fetched_total",
		Help: "Total number of deck pages fetched",
	})

	cardsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duoload_cards_total",
		Help: "Total cards read from the source by outcome",
	}, []string{"result"}) // "added", "duplicate", "rejected"

	pageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "duoload_page_fetch_duration_seconds",
		Help:    "Time spent fetching a single page",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	transferErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duoload_transfer_errors_total",
		Help: "Total failed transfer runs by stage",
	}, []string{"stage"})

	transferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "duoload_transfer_duration_seconds",
		Help:    "Wall time of complete transfer runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)
