package models

import "time"

type TournamentStatus string

const (
	TournamentStatusUpcoming  TournamentStatus = "upcoming"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Status    TournamentStatus `json:"status"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	LogoKey   *string          `json:"-"`
	LogoURL   *string          `json:"logo_url,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
