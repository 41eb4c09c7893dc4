package models

import "time"

type BonusQuestionType string

const (
	BonusQuestionTournamentWinner BonusQuestionType = "tournament_winner"
	BonusQuestionTopScorer        BonusQuestionType = "top_scorer"
	BonusQuestionCustom           BonusQuestionType = "custom"
)

// BonusQuestion is a tournament-wide prediction resolved exactly once.
// Resolution is terminal: a resolved question is never un-resolved.
type BonusQuestion struct {
	ID           int               `json:"id"`
	TournamentID int               `json:"tournament_id"`
	QuestionType BonusQuestionType `json:"question_type"`
	Text         string            `json:"text"`
	Points       int               `json:"points"`
	Deadline     time.Time         `json:"deadline"`
	IsResolved   bool              `json:"is_resolved"`
	AnswerTeamID *int              `json:"answer_team_id,omitempty"`
	AnswerText   *string           `json:"answer_text,omitempty"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type BonusPrediction struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	LeagueID        int        `json:"league_id"`
	BonusQuestionID int        `json:"bonus_question_id"`
	AnswerTeamID    *int       `json:"answer_team_id,omitempty"`
	AnswerText      *string    `json:"answer_text,omitempty"`
	PointsEarned    *int       `json:"points_earned,omitempty"`
	ScoredAt        *time.Time `json:"scored_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
