package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/lib/pq"
)

var (
	ErrBonusPredictionNotFound        = errors.New("bonus prediction not found")
	ErrBonusPredictionQuestionInvalid = errors.New("bonus prediction question conflict or invalid")
	ErrBonusPredictionLeagueInvalid   = errors.New("bonus prediction league conflict or invalid")
)

type BonusPredictionRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, prediction *models.BonusPrediction) error
	ListByQuestion(ctx context.Context, exec SQLExecutor, bonusQuestionID int) ([]*models.BonusPrediction, error)
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.BonusPrediction, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, pointsEarned int, scoredAt time.Time) error
	// SumPointsByLeague aggregates PointsEarned per member, treating
	// unscored (null) predictions as zero.
	SumPointsByLeague(ctx context.Context, exec SQLExecutor, leagueID int) (map[int]int, error)
	DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
}

type postgresBonusPredictionRepository struct {
	db *sql.DB
}

func NewPostgresBonusPredictionRepository(db *sql.DB) BonusPredictionRepository {
	return &postgresBonusPredictionRepository{db: db}
}

func (r *postgresBonusPredictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bonusPredictionColumns = `id, user_id, league_id, bonus_question_id, answer_team_id, answer_text,
	       points_earned, scored_at, created_at, updated_at`

func (r *postgresBonusPredictionRepository) scanPrediction(rowScanner interface{ Scan(...interface{}) error }) (*models.BonusPrediction, error) {
	var p models.BonusPrediction
	err := rowScanner.Scan(
		&p.ID, &p.UserID, &p.LeagueID, &p.BonusQuestionID, &p.AnswerTeamID, &p.AnswerText,
		&p.PointsEarned, &p.ScoredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBonusPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresBonusPredictionRepository) Upsert(ctx context.Context, exec SQLExecutor, prediction *models.BonusPrediction) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO bonus_predictions (user_id, league_id, bonus_question_id, answer_team_id, answer_text)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, league_id, bonus_question_id) DO UPDATE
		SET answer_team_id = EXCLUDED.answer_team_id,
		    answer_text = EXCLUDED.answer_text,
		    updated_at = NOW()
		RETURNING ` + bonusPredictionColumns

	saved, err := r.scanPrediction(executor.QueryRowContext(ctx, query,
		prediction.UserID, prediction.LeagueID, prediction.BonusQuestionID,
		prediction.AnswerTeamID, prediction.AnswerText,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "bonus_predictions_bonus_question_id_fkey":
				return ErrBonusPredictionQuestionInvalid
			case "bonus_predictions_league_id_fkey":
				return ErrBonusPredictionLeagueInvalid
			}
		}
		return err
	}
	*prediction = *saved
	return nil
}

func (r *postgresBonusPredictionRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.BonusPrediction, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus predictions: %w", err)
	}
	defer rows.Close()

	predictions := make([]*models.BonusPrediction, 0)
	for rows.Next() {
		p, scanErr := r.scanPrediction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bonus prediction row: %w", scanErr)
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bonus prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresBonusPredictionRepository) ListByQuestion(ctx context.Context, exec SQLExecutor, bonusQuestionID int) ([]*models.BonusPrediction, error) {
	query := `SELECT ` + bonusPredictionColumns + ` FROM bonus_predictions WHERE bonus_question_id = $1 ORDER BY league_id ASC, id ASC`
	return r.list(ctx, r.getExecutor(exec), query, bonusQuestionID)
}

func (r *postgresBonusPredictionRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.BonusPrediction, error) {
	query := `SELECT ` + bonusPredictionColumns + ` FROM bonus_predictions WHERE league_id = $1 ORDER BY bonus_question_id ASC, id ASC`
	return r.list(ctx, r.getExecutor(exec), query, leagueID)
}

func (r *postgresBonusPredictionRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, pointsEarned int, scoredAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `UPDATE bonus_predictions SET points_earned = $1, scored_at = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, pointsEarned, scoredAt, id)
	if err != nil {
		return fmt.Errorf("failed to update score for bonus prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBonusPredictionNotFound)
}

func (r *postgresBonusPredictionRepository) SumPointsByLeague(ctx context.Context, exec SQLExecutor, leagueID int) (map[int]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT user_id, COALESCE(SUM(points_earned), 0)
		FROM bonus_predictions
		WHERE league_id = $1
		GROUP BY user_id`

	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum bonus points for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	totals := make(map[int]int)
	for rows.Next() {
		var userID, points int
		if scanErr := rows.Scan(&userID, &points); scanErr != nil {
			return nil, fmt.Errorf("failed to scan bonus sum row: %w", scanErr)
		}
		totals[userID] = points
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bonus sum iteration: %w", err)
	}
	return totals, nil
}

func (r *postgresBonusPredictionRepository) DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM bonus_predictions WHERE league_id = $1 AND user_id = $2`, leagueID, userID)
	return err
}
