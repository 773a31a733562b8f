package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pokepocketdata/ppdd/internal/cache"
	"github.com/pokepocketdata/ppdd/internal/database"
	"github.com/pokepocketdata/ppdd/internal/metrics"
	"github.com/pokepocketdata/ppdd/internal/models"
	"github.com/pokepocketdata/ppdd/internal/validation"
)

// GameService records finished games and serves per-player statistics
type GameService struct {
	store *database.Store
	stats cache.StatsCache
	log   *zap.Logger
	now   func() time.Time
}

func NewGameService(store *database.Store, stats cache.StatsCache, log *zap.Logger) *GameService {
	if stats == nil {
		stats = cache.NoopStatsCache{}
	}
	return &GameService{store: store, stats: stats, log: log.Named("games"), now: time.Now}
}

// Record validates a game submitted by playerID and stores its details and record
// together. Nothing is stored when any check fails.
func (s *GameService) Record(ctx context.Context, playerID string, req *models.GameCreateRequest) (*models.GameRecord, error) {
	if id := req.GameRecordData.PlayerID; id != "" && id != playerID {
		return nil, reject(s.log, "game", &validation.ForbiddenError{Message: "player_id must be the authenticated user"})
	}

	details, record := req.ToEntities(playerID, s.now())
	if err := validation.ValidateGameRecord(details, record); err != nil {
		return nil, reject(s.log, "game", err)
	}

	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		return tx.CreateGameRecord(ctx, details, record)
	})
	if err != nil {
		if isCallerError(err) {
			return nil, reject(s.log, "game", err)
		}
		return nil, fmt.Errorf("failed to record game: %w", err)
	}

	metrics.GamesRecordedTotal.WithLabelValues(string(record.Outcome)).Inc()
	s.stats.Invalidate(ctx, playerID)

	s.log.Info("game recorded",
		zap.String("game_record_id", record.ID),
		zap.String("player_id", playerID),
		zap.String("outcome", string(record.Outcome)),
		zap.Int("player_points", details.PlayerPoints),
		zap.Int("opponents_points", details.OpponentsPoints))
	return record, nil
}

func (s *GameService) List(ctx context.Context, playerID string, skip, limit int) (*models.GameRecordPage, error) {
	return s.store.ListGameRecords(ctx, playerID, skip, limit)
}

// Statistics returns the player's aggregate record, from the cache when possible
func (s *GameService) Statistics(ctx context.Context, playerID string) (*models.PlayerStatistics, error) {
	cached, generation, ok := s.stats.Get(ctx, playerID)
	if ok {
		return cached, nil
	}

	stats, err := s.store.GetPlayerStatistics(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	// dropped by the cache if a game was recorded since Get
	s.stats.Set(ctx, stats, generation)
	return stats, nil
}
