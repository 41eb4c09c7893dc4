package models

import "time"

type League struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	Name         string    `json:"name"`
	CreatorID    int       `json:"creator_id"`
	InviteCode   string    `json:"invite_code,omitempty"`
	LogoKey      *string   `json:"-"`
	LogoURL      *string   `json:"logo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Settings *LeagueSettings `json:"settings,omitempty"`
}

type LeagueMember struct {
	LeagueID int       `json:"league_id"`
	UserID   int       `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	User *User `json:"user,omitempty"`
}

// LeagueSettings configures the point values used when scoring this
// league's predictions. Immutable for the duration of a scoring pass.
type LeagueSettings struct {
	LeagueID             int `json:"league_id"`
	PointsCorrectScore   int `json:"points_correct_score"`
	PointsCorrectOutcome int `json:"points_correct_outcome"`
	PointsCorrectGoals   int `json:"points_correct_goals"`
}
