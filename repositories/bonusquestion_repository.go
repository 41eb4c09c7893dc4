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
	ErrBonusQuestionNotFound          = errors.New("bonus question not found")
	ErrBonusQuestionAlreadyResolved   = errors.New("bonus question is already resolved")
	ErrBonusQuestionTournamentInvalid = errors.New("bonus question tournament conflict or invalid")
)

type BonusQuestionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, question *models.BonusQuestion) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BonusQuestion, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BonusQuestion, error)
	// Resolve marks the question resolved with its canonical answer.
	// Resolution is terminal: resolving an already-resolved question
	// fails with ErrBonusQuestionAlreadyResolved.
	Resolve(ctx context.Context, exec SQLExecutor, id int, answerTeamID *int, answerText *string, resolvedAt time.Time) error
}

type postgresBonusQuestionRepository struct {
	db *sql.DB
}

func NewPostgresBonusQuestionRepository(db *sql.DB) BonusQuestionRepository {
	return &postgresBonusQuestionRepository{db: db}
}

func (r *postgresBonusQuestionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bonusQuestionColumns = `id, tournament_id, question_type, text, points, deadline,
	       is_resolved, answer_team_id, answer_text, resolved_at, created_at`

func (r *postgresBonusQuestionRepository) scanQuestion(rowScanner interface{ Scan(...interface{}) error }) (*models.BonusQuestion, error) {
	var q models.BonusQuestion
	err := rowScanner.Scan(
		&q.ID, &q.TournamentID, &q.QuestionType, &q.Text, &q.Points, &q.Deadline,
		&q.IsResolved, &q.AnswerTeamID, &q.AnswerText, &q.ResolvedAt, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBonusQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *postgresBonusQuestionRepository) Create(ctx context.Context, exec SQLExecutor, question *models.BonusQuestion) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO bonus_questions (tournament_id, question_type, text, points, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		question.TournamentID, question.QuestionType, question.Text, question.Points, question.Deadline,
	).Scan(&question.ID, &question.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "bonus_questions_tournament_id_fkey" {
			return ErrBonusQuestionTournamentInvalid
		}
		return err
	}
	return nil
}

func (r *postgresBonusQuestionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BonusQuestion, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bonusQuestionColumns + ` FROM bonus_questions WHERE id = $1`
	return r.scanQuestion(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresBonusQuestionRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BonusQuestion, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bonusQuestionColumns + ` FROM bonus_questions WHERE tournament_id = $1 ORDER BY deadline ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus questions for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	questions := make([]*models.BonusQuestion, 0)
	for rows.Next() {
		q, scanErr := r.scanQuestion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bonus question row: %w", scanErr)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bonus question rows iteration: %w", err)
	}
	return questions, nil
}

func (r *postgresBonusQuestionRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, answerTeamID *int, answerText *string, resolvedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE bonus_questions
		SET is_resolved = TRUE, answer_team_id = $1, answer_text = $2, resolved_at = $3
		WHERE id = $4 AND is_resolved = FALSE`

	result, err := executor.ExecContext(ctx, query, answerTeamID, answerText, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve bonus question %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish missing from already-resolved.
		if _, getErr := r.GetByID(ctx, executor, id); getErr != nil {
			return getErr
		}
		return ErrBonusQuestionAlreadyResolved
	}
	return nil
}
