package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/prediction-league/live"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type CreateBonusQuestionInput struct {
	TournamentID int                      `json:"tournament_id"`
	QuestionType models.BonusQuestionType `json:"question_type"`
	Text         string                   `json:"text"`
	Points       int                      `json:"points"`
	Deadline     time.Time                `json:"deadline"`
}

type ResolveBonusQuestionInput struct {
	AnswerTeamID *int    `json:"answer_team_id,omitempty"`
	AnswerText   *string `json:"answer_text,omitempty"`
}

type SubmitBonusPredictionInput struct {
	LeagueID        int     `json:"league_id"`
	BonusQuestionID int     `json:"bonus_question_id"`
	AnswerTeamID    *int    `json:"answer_team_id,omitempty"`
	AnswerText      *string `json:"answer_text,omitempty"`
}

type BonusService interface {
	CreateQuestion(ctx context.Context, input CreateBonusQuestionInput) (*models.BonusQuestion, error)
	GetQuestionByID(ctx context.Context, id int) (*models.BonusQuestion, error)
	ListQuestionsByTournament(ctx context.Context, tournamentID int) ([]*models.BonusQuestion, error)
	// ResolveQuestion records the canonical answer and immediately
	// scores every submitted answer. Resolution is terminal.
	ResolveQuestion(ctx context.Context, id int, input ResolveBonusQuestionInput) (*models.BonusQuestion, error)
	// SubmitPrediction creates or replaces the member's answer. Allowed
	// until the question's deadline; resolution closes it for good.
	SubmitPrediction(ctx context.Context, userID int, input SubmitBonusPredictionInput) (*models.BonusPrediction, error)
}

type bonusService struct {
	questionRepo   repositories.BonusQuestionRepository
	bonusPredRepo  repositories.BonusPredictionRepository
	leagueRepo     repositories.LeagueRepository
	tournamentRepo repositories.TournamentRepository
	scoringService ScoringService
	hub            *live.Hub
	logger         *slog.Logger
}

func NewBonusService(
	questionRepo repositories.BonusQuestionRepository,
	bonusPredRepo repositories.BonusPredictionRepository,
	leagueRepo repositories.LeagueRepository,
	tournamentRepo repositories.TournamentRepository,
	scoringService ScoringService,
	hub *live.Hub,
	logger *slog.Logger,
) BonusService {
	return &bonusService{
		questionRepo:   questionRepo,
		bonusPredRepo:  bonusPredRepo,
		leagueRepo:     leagueRepo,
		tournamentRepo: tournamentRepo,
		scoringService: scoringService,
		hub:            hub,
		logger:         logger,
	}
}

func (s *bonusService) CreateQuestion(ctx context.Context, input CreateBonusQuestionInput) (*models.BonusQuestion, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: question text is required", ErrValidationFailed)
	}
	if input.Points <= 0 {
		return nil, fmt.Errorf("%w: question points must be positive", ErrValidationFailed)
	}
	if input.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: question deadline is required", ErrValidationFailed)
	}

	if _, err := s.tournamentRepo.GetByID(ctx, nil, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to check tournament %d: %w", input.TournamentID, err)
	}

	question := &models.BonusQuestion{
		TournamentID: input.TournamentID,
		QuestionType: input.QuestionType,
		Text:         strings.TrimSpace(input.Text),
		Points:       input.Points,
		Deadline:     input.Deadline,
	}
	if err := s.questionRepo.Create(ctx, nil, question); err != nil {
		if errors.Is(err, repositories.ErrBonusQuestionTournamentInvalid) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create bonus question: %w", err)
	}
	return question, nil
}

func (s *bonusService) GetQuestionByID(ctx context.Context, id int) (*models.BonusQuestion, error) {
	question, err := s.questionRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBonusQuestionNotFound) {
			return nil, ErrBonusQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get bonus question %d: %w", id, err)
	}
	return question, nil
}

func (s *bonusService) ListQuestionsByTournament(ctx context.Context, tournamentID int) ([]*models.BonusQuestion, error) {
	questions, err := s.questionRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonus questions for tournament %d: %w", tournamentID, err)
	}
	return questions, nil
}

func (s *bonusService) ResolveQuestion(ctx context.Context, id int, input ResolveBonusQuestionInput) (*models.BonusQuestion, error) {
	if input.AnswerTeamID == nil && (input.AnswerText == nil || strings.TrimSpace(*input.AnswerText) == "") {
		return nil, ErrAnswerRequired
	}

	if err := s.questionRepo.Resolve(ctx, nil, id, input.AnswerTeamID, input.AnswerText, time.Now()); err != nil {
		switch {
		case errors.Is(err, repositories.ErrBonusQuestionNotFound):
			return nil, ErrBonusQuestionNotFound
		case errors.Is(err, repositories.ErrBonusQuestionAlreadyResolved):
			return nil, ErrBonusQuestionResolved
		}
		return nil, fmt.Errorf("failed to resolve bonus question %d: %w", id, err)
	}

	scored, err := s.scoringService.ScoreBonusPredictions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("question resolved but scoring failed: %w", err)
	}
	s.logger.InfoContext(ctx, "bonus question resolved",
		slog.Int("bonus_question_id", id), slog.Int("answers_scored", scored))

	question, err := s.questionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(live.TournamentRoom(question.TournamentID), live.Event{
		Type:    live.EventBonusResolved,
		Payload: question,
	})
	return question, nil
}

func (s *bonusService) SubmitPrediction(ctx context.Context, userID int, input SubmitBonusPredictionInput) (*models.BonusPrediction, error) {
	if input.AnswerTeamID == nil && (input.AnswerText == nil || strings.TrimSpace(*input.AnswerText) == "") {
		return nil, ErrAnswerRequired
	}

	question, err := s.questionRepo.GetByID(ctx, nil, input.BonusQuestionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBonusQuestionNotFound) {
			return nil, ErrBonusQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load bonus question %d: %w", input.BonusQuestionID, err)
	}
	if question.IsResolved {
		return nil, ErrBonusQuestionResolved
	}
	if time.Now().After(question.Deadline) {
		return nil, ErrBonusDeadline
	}

	league, err := s.leagueRepo.GetByID(ctx, nil, input.LeagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to load league %d: %w", input.LeagueID, err)
	}
	if league.TournamentID != question.TournamentID {
		return nil, fmt.Errorf("%w: question belongs to a different tournament", ErrValidationFailed)
	}

	isMember, err := s.leagueRepo.IsMember(ctx, nil, input.LeagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check league membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotLeagueMember
	}

	prediction := &models.BonusPrediction{
		UserID:          userID,
		LeagueID:        input.LeagueID,
		BonusQuestionID: input.BonusQuestionID,
		AnswerTeamID:    input.AnswerTeamID,
		AnswerText:      input.AnswerText,
	}
	if err := s.bonusPredRepo.Upsert(ctx, nil, prediction); err != nil {
		return nil, fmt.Errorf("failed to save bonus prediction: %w", err)
	}
	return prediction, nil
}
