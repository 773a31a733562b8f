package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunMigrations runs any custom data migrations after schema changes.
// Each migration is safe to run multiple times.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	if err := migrateStageSpelling(db, log); err != nil {
		return err
	}
	if err := migrateOutcomeCase(db, log); err != nil {
		return err
	}
	return nil
}

// migrateStageSpelling rewrites the legacy spaced stage names ("Stage 1") to the canonical form
func migrateStageSpelling(db *gorm.DB, log *zap.Logger) error {
	if !db.Migrator().HasTable("pokemon_cards") {
		return nil
	}

	result := db.Exec(`
		UPDATE pokemon_cards
		SET stage = CASE
			WHEN stage = 'Stage 1' THEN 'Stage1'
			WHEN stage = 'Stage 2' THEN 'Stage2'
			ELSE stage
		END
		WHERE stage IN ('Stage 1', 'Stage 2')
	`)
	if result.Error != nil {
		log.Warn("failed to migrate pokemon_cards stage spelling", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info("Migrated pokemon_cards stage spelling", zap.Int64("rows", result.RowsAffected))
	}
	return nil
}

// migrateOutcomeCase upper-cases outcomes stored as "win"/"loss"/"draw"
func migrateOutcomeCase(db *gorm.DB, log *zap.Logger) error {
	if !db.Migrator().HasTable("game_records") {
		return nil
	}

	result := db.Exec(`
		UPDATE game_records
		SET outcome = UPPER(outcome)
		WHERE outcome IN ('win', 'loss', 'draw', 'Win', 'Loss', 'Draw')
	`)
	if result.Error != nil {
		log.Warn("failed to migrate game_records outcome case", zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info("Migrated game_records outcome case", zap.Int64("rows", result.RowsAffected))
	}
	return nil
}
