package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
)

var ErrLeagueStandingNotFound = errors.New("league standing not found")

type LeagueStandingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, standing *models.LeagueStanding) error
	Update(ctx context.Context, exec SQLExecutor, standing *models.LeagueStanding) error
	// ListByLeague returns the league's standings with MemberSince
	// populated from league_members (the rank tie-break key). With
	// sortByRank the rows come back in display order.
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int, sortByRank bool) ([]*models.LeagueStanding, error)
	DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
	DeleteByLeague(ctx context.Context, exec SQLExecutor, leagueID int) error
}

type postgresLeagueStandingRepository struct {
	db *sql.DB
}

func NewPostgresLeagueStandingRepository(db *sql.DB) LeagueStandingRepository {
	return &postgresLeagueStandingRepository{db: db}
}

func (r *postgresLeagueStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueStandingRepository) Create(ctx context.Context, exec SQLExecutor, standing *models.LeagueStanding) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO league_standings
		    (league_id, user_id, match_points, bonus_points, total_points, rank, previous_rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if standing.UpdatedAt.IsZero() {
		standing.UpdatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		standing.LeagueID, standing.UserID, standing.MatchPoints, standing.BonusPoints,
		standing.TotalPoints, standing.Rank, standing.PreviousRank, standing.UpdatedAt,
	).Scan(&standing.ID)

	return err
}

func (r *postgresLeagueStandingRepository) Update(ctx context.Context, exec SQLExecutor, standing *models.LeagueStanding) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE league_standings SET
			match_points = $1, bonus_points = $2, total_points = $3,
			rank = $4, previous_rank = $5, updated_at = $6
		WHERE id = $7`

	result, err := executor.ExecContext(ctx, query,
		standing.MatchPoints, standing.BonusPoints, standing.TotalPoints,
		standing.Rank, standing.PreviousRank, time.Now(),
		standing.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueStandingNotFound)
}

func (r *postgresLeagueStandingRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int, sortByRank bool) ([]*models.LeagueStanding, error) {
	executor := r.getExecutor(exec)

	query := `
		SELECT ls.id, ls.league_id, ls.user_id, ls.match_points, ls.bonus_points,
		       ls.total_points, ls.rank, ls.previous_rank, ls.updated_at, lm.joined_at
		FROM league_standings ls
		JOIN league_members lm ON lm.league_id = ls.league_id AND lm.user_id = ls.user_id
		WHERE ls.league_id = $1`

	if sortByRank {
		// Matches the order AssignRanks produces, so pages are stable.
		query += ` ORDER BY ls.total_points DESC, lm.joined_at ASC, ls.user_id ASC`
	} else {
		query += ` ORDER BY ls.user_id ASC`
	}

	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	standings := make([]*models.LeagueStanding, 0)
	for rows.Next() {
		var s models.LeagueStanding
		if scanErr := rows.Scan(
			&s.ID, &s.LeagueID, &s.UserID, &s.MatchPoints, &s.BonusPoints,
			&s.TotalPoints, &s.Rank, &s.PreviousRank, &s.UpdatedAt, &s.MemberSince,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresLeagueStandingRepository) DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM league_standings WHERE league_id = $1 AND user_id = $2`, leagueID, userID)
	return err
}

func (r *postgresLeagueStandingRepository) DeleteByLeague(ctx context.Context, exec SQLExecutor, leagueID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM league_standings WHERE league_id = $1`, leagueID)
	return err
}
