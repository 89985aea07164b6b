package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var UpstreamRequest = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "habbo_upstream_request_duration_seconds",
		Help:    "Latency of upstream profile and groups requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"hotel", "endpoint", "status"},
)

var BadgeDiscoveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habbo_badge_discoveries_total",
		Help: "Badges observed for the first time on a player",
	},
	[]string{"hotel"},
)

var PersistenceDegraded = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habbo_persistence_degraded_total",
		Help: "Persistence operations that failed and were skipped",
	},
	[]string{"operation"}, // "identity_upsert", "observed_codes", "record_new", "touch", "history"
)

var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habbo_http_requests_total",
		Help: "Inbound API requests by route and status class",
	},
	[]string{"route", "status"},
)

var RankingCache = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "habbo_ranking_cache_total",
		Help: "Ranking cache lookups",
	},
	[]string{"result"}, // "hit", "miss", "error"
)

// Register adds the collectors to the given registerer.
func Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		UpstreamRequest,
		BadgeDiscoveries,
		PersistenceDegraded,
		HTTPRequests,
		RankingCache,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
