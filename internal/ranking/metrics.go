package ranking

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// distanceCacheLookups counts distance cache lookups by result.
	distanceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_distance_cache_lookups_total",
		Help: "Total number of distance cache lookups by result",
	}, []string{"result"})

	// rankingDuration tracks the time taken to rank restaurants for an order.
	rankingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranking_duration_seconds",
		Help:    "Time taken to rank restaurants for a single order",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	})

	// rankedRestaurants tracks how many eligible restaurants each ranking sees.
	rankedRestaurants = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranking_eligible_restaurants_count",
		Help:    "Number of eligible restaurants per ranked order",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// unknownDistances counts ranked entries whose distance stayed unknown.
	unknownDistances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ranking_unknown_distances_total",
		Help: "Total number of ranked entries with unresolved distance",
	})
)

func observeRanking(start time.Time, eligible int) {
	rankingDuration.Observe(time.Since(start).Seconds())
	rankedRestaurants.Observe(float64(eligible))
}
