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
	ErrPredictionNotFound      = errors.New("prediction not found")
	ErrPredictionMatchInvalid  = errors.New("prediction match conflict or invalid")
	ErrPredictionLeagueInvalid = errors.New("prediction league conflict or invalid")
	ErrPredictionUserInvalid   = errors.New("prediction user conflict or invalid")
)

type PredictionRepository interface {
	// Upsert creates the prediction or, if one already exists for the
	// (user, league, match) triple, replaces its predicted scores.
	Upsert(ctx context.Context, exec SQLExecutor, prediction *models.Prediction) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Prediction, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Prediction, error)
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.Prediction, error)
	ListByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) ([]*models.Prediction, error)
	// UpdateScore writes the engine-owned points fields only.
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, pointsEarned, scoredResultVersion int, scoredAt time.Time) error
	// SumPointsByLeague aggregates PointsEarned over scored predictions
	// per member. Members without scored predictions are absent.
	SumPointsByLeague(ctx context.Context, exec SQLExecutor, leagueID int) (map[int]int, error)
	DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

func (r *postgresPredictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const predictionColumns = `id, user_id, league_id, match_id, predicted_home_score, predicted_away_score,
	       points_earned, is_scored, scored_result_version, scored_at, created_at, updated_at`

func (r *postgresPredictionRepository) scanPrediction(rowScanner interface{ Scan(...interface{}) error }) (*models.Prediction, error) {
	var p models.Prediction
	err := rowScanner.Scan(
		&p.ID, &p.UserID, &p.LeagueID, &p.MatchID, &p.PredictedHomeScore, &p.PredictedAwayScore,
		&p.PointsEarned, &p.IsScored, &p.ScoredResultVersion, &p.ScoredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPredictionRepository) Upsert(ctx context.Context, exec SQLExecutor, prediction *models.Prediction) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO predictions (user_id, league_id, match_id, predicted_home_score, predicted_away_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, league_id, match_id) DO UPDATE
		SET predicted_home_score = EXCLUDED.predicted_home_score,
		    predicted_away_score = EXCLUDED.predicted_away_score,
		    updated_at = NOW()
		RETURNING ` + predictionColumns

	saved, err := r.scanPrediction(executor.QueryRowContext(ctx, query,
		prediction.UserID, prediction.LeagueID, prediction.MatchID,
		prediction.PredictedHomeScore, prediction.PredictedAwayScore,
	))
	if err != nil {
		return r.handlePredictionError(err)
	}
	*prediction = *saved
	return nil
}

func (r *postgresPredictionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Prediction, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`
	return r.scanPrediction(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresPredictionRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	predictions := make([]*models.Prediction, 0)
	for rows.Next() {
		p, scanErr := r.scanPrediction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", scanErr)
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresPredictionRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE match_id = $1 ORDER BY league_id ASC, id ASC`
	return r.list(ctx, r.getExecutor(exec), query, matchID)
}

func (r *postgresPredictionRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE league_id = $1 ORDER BY match_id ASC, id ASC`
	return r.list(ctx, r.getExecutor(exec), query, leagueID)
}

func (r *postgresPredictionRepository) ListByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE league_id = $1 AND user_id = $2 ORDER BY match_id ASC`
	return r.list(ctx, r.getExecutor(exec), query, leagueID, userID)
}

func (r *postgresPredictionRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, pointsEarned, scoredResultVersion int, scoredAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE predictions
		SET points_earned = $1, is_scored = TRUE, scored_result_version = $2, scored_at = $3
		WHERE id = $4`

	result, err := executor.ExecContext(ctx, query, pointsEarned, scoredResultVersion, scoredAt, id)
	if err != nil {
		return fmt.Errorf("failed to update score for prediction %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPredictionNotFound)
}

func (r *postgresPredictionRepository) SumPointsByLeague(ctx context.Context, exec SQLExecutor, leagueID int) (map[int]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT user_id, COALESCE(SUM(points_earned), 0)
		FROM predictions
		WHERE league_id = $1 AND is_scored = TRUE
		GROUP BY user_id`

	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum prediction points for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	totals := make(map[int]int)
	for rows.Next() {
		var userID, points int
		if scanErr := rows.Scan(&userID, &points); scanErr != nil {
			return nil, fmt.Errorf("failed to scan prediction sum row: %w", scanErr)
		}
		totals[userID] = points
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during prediction sum iteration: %w", err)
	}
	return totals, nil
}

func (r *postgresPredictionRepository) DeleteByLeagueAndUser(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM predictions WHERE league_id = $1 AND user_id = $2`, leagueID, userID)
	return err
}

func (r *postgresPredictionRepository) handlePredictionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "predictions_match_id_fkey":
			return ErrPredictionMatchInvalid
		case "predictions_league_id_fkey":
			return ErrPredictionLeagueInvalid
		case "predictions_user_id_fkey":
			return ErrPredictionUserInvalid
		}
	}
	return err
}
