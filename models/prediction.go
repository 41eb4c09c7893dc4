package models

import "time"

// Prediction is a user's score guess for one match within one league.
// At most one prediction exists per (user, league, match). The points
// fields are owned by the scoring engine; the predicted scores are
// owned by the user until the match kicks off.
type Prediction struct {
	ID                 int  `json:"id"`
	UserID             int  `json:"user_id"`
	LeagueID           int  `json:"league_id"`
	MatchID            int  `json:"match_id"`
	PredictedHomeScore int  `json:"predicted_home_score"`
	PredictedAwayScore int  `json:"predicted_away_score"`
	PointsEarned       int  `json:"points_earned"`
	IsScored           bool `json:"is_scored"`
	// ScoredResultVersion records the match ResultVersion the points
	// were computed against. Equal to the match's current version means
	// the points are up to date.
	ScoredResultVersion *int       `json:"scored_result_version,omitempty"`
	ScoredAt            *time.Time `json:"scored_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
