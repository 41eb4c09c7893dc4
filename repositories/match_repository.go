package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	// FinalizeResult writes a finalized score, moves the match to
	// full_time and bumps result_version exactly once. Returns the new
	// version.
	FinalizeResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, home_team_id, away_team_id, home_score, away_score,
	       status, result_version, kickoff_time, created_at`

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.HomeTeamID, &m.AwayTeamID, &m.HomeScore, &m.AwayScore,
		&m.Status, &m.ResultVersion, &m.KickoffTime, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (tournament_id, home_team_id, away_team_id, status, result_version, kickoff_time)
		VALUES ($1, $2, $3, $4, 0, $5)
		RETURNING id, result_version, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.HomeTeamID, match.AwayTeamID, match.Status, match.KickoffTime,
	).Scan(&match.ID, &match.ResultVersion, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY kickoff_time ASC, id ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) FinalizeResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int) (int, error) {
	executor := r.getExecutor(exec)
	// Версия растёт только при изменении счёта: повторная отправка того
	// же результата возвращает текущую версию и не запускает переоценку.
	query := `
		UPDATE matches
		SET result_version = result_version + CASE
				WHEN home_score IS DISTINCT FROM $1 OR away_score IS DISTINCT FROM $2 THEN 1
				ELSE 0
			END,
			home_score = $1, away_score = $2, status = $3
		WHERE id = $4
		RETURNING result_version`

	var newVersion int
	err := executor.QueryRowContext(ctx, query, homeScore, awayScore, models.MatchStatusFullTime, id).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrMatchNotFound
		}
		return 0, fmt.Errorf("failed to finalize result for match %d: %w", id, err)
	}
	return newVersion, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_home_team_id_fkey", "matches_away_team_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	return err
}
