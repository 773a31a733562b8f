package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdd_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppdd_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdd_validation_failures_total",
		Help: "Rejected writes by entity and kind (schema, rule, conflict, not_found)",
	}, []string{"entity", "kind"})

	GamesRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdd_games_recorded_total",
		Help: "Game records created by outcome",
	}, []string{"outcome"})

	StatsCacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppdd_stats_cache_requests_total",
		Help: "Player statistics cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	CardsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ppdd_cards_total",
		Help: "Cards in the catalog by set",
	}, []string{"set"})

	DecksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ppdd_decks_total",
		Help: "Stored decks",
	})

	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ppdd_users_total",
		Help: "Registered users",
	})

	GameRecordsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ppdd_game_records_total",
		Help: "Stored game records",
	})
)
