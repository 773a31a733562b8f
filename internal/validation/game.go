package validation

import "github.com/pokepocketdata/ppdd/internal/models"

// ValidateGameRecord checks a game's details and its record together: the point
// total, the number of turns, and that the outcome agrees with the score.
func ValidateGameRecord(details *models.GameDetails, record *models.GameRecord) error {
	var f failures

	if details == nil {
		f.add("game_data", "is required")
		return f.err("game")
	}

	if total := details.PlayerPoints + details.OpponentsPoints; total > models.MaxTotalPoints {
		f.add("game_data", "total points cannot exceed %d, got %d (%d + %d)",
			models.MaxTotalPoints, total, details.PlayerPoints, details.OpponentsPoints)
	}
	if details.TurnsPlayed <= 0 {
		f.add("game_data.turns_played", "must be greater than 0")
	}

	if record != nil && record.Outcome.IsValid() {
		implied := models.OutcomeForPoints(details.PlayerPoints, details.OpponentsPoints)
		if record.Outcome != implied {
			f.add("game_record_data.outcome", "outcome %s contradicts the score %d-%d, which is a %s",
				record.Outcome, details.PlayerPoints, details.OpponentsPoints, implied)
		}
	}

	return f.err("game")
}
