package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFullTime  MatchStatus = "full_time"
	MatchStatusPostponed MatchStatus = "postponed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

type Match struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	HomeTeamID   int         `json:"home_team_id"`
	AwayTeamID   int         `json:"away_team_id"`
	HomeScore    *int        `json:"home_score,omitempty"`
	AwayScore    *int        `json:"away_score,omitempty"`
	Status       MatchStatus `json:"status"`
	// ResultVersion starts at 0 and is incremented every time the
	// finalized score changes. It only ever increases.
	ResultVersion int       `json:"result_version"`
	KickoffTime   time.Time `json:"kickoff_time"`
	CreatedAt     time.Time `json:"created_at"`

	// Optional linked data, populated by the service layer.
	HomeTeam *Team `json:"home_team,omitempty"`
	AwayTeam *Team `json:"away_team,omitempty"`
}

// HasResult reports whether the match has a finalized score to score
// predictions against.
func (m *Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}
