package metrics

import (
	"context"

	"go.uber.org/zap"
)

// CountSource is the part of the persistence gateway the database gauges read from
type CountSource interface {
	CountCardsBySet(ctx context.Context) (map[string]int64, error)
	Counts(ctx context.Context) (decks, users, gameRecords int64, err error)
}

// UpdateDatabaseMetrics queries the database and refreshes the catalog and activity gauges.
// Call this after bulk changes or periodically.
func UpdateDatabaseMetrics(ctx context.Context, src CountSource, log *zap.Logger) {
	if src == nil {
		return
	}

	bySet, err := src.CountCardsBySet(ctx)
	if err != nil {
		log.Warn("Metrics: failed to count cards by set", zap.Error(err))
	} else {
		CardsTotal.Reset()
		for set, n := range bySet {
			CardsTotal.WithLabelValues(set).Set(float64(n))
		}
	}

	decks, users, games, err := src.Counts(ctx)
	if err != nil {
		log.Warn("Metrics: failed to count decks, users and games", zap.Error(err))
		return
	}
	DecksTotal.Set(float64(decks))
	UsersTotal.Set(float64(users))
	GameRecordsTotal.Set(float64(games))
}
