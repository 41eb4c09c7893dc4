package models

import "time"

// LeagueStanding is one row per (league, member), entirely derived and
// owned by the scoring engine. TotalPoints = MatchPoints + BonusPoints
// holds after every recomputation.
type LeagueStanding struct {
	ID           int       `json:"id" db:"id"`
	LeagueID     int       `json:"league_id" db:"league_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	MatchPoints  int       `json:"match_points" db:"match_points"`
	BonusPoints  int       `json:"bonus_points" db:"bonus_points"`
	TotalPoints  int       `json:"total_points" db:"total_points"`
	Rank         int       `json:"rank" db:"rank"` // 0 until first computed, then >= 1
	PreviousRank *int      `json:"previous_rank,omitempty" db:"previous_rank"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// MemberSince is the member's league join time, populated by a join
	// against league_members. Used as the deterministic tie-break key.
	MemberSince time.Time `json:"-" db:"-"`

	// Optional linked data, not directly in the DB table.
	User *User `json:"user,omitempty" db:"-"`
}

// RankChange is PreviousRank - Rank; positive means the member moved up.
// Nil until the standing has both a current and a previous rank.
func (s *LeagueStanding) RankChange() *int {
	if s.PreviousRank == nil || s.Rank == 0 {
		return nil
	}
	delta := *s.PreviousRank - s.Rank
	return &delta
}
