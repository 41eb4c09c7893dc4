package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type SubmitPredictionInput struct {
	LeagueID           int `json:"league_id"`
	MatchID            int `json:"match_id"`
	PredictedHomeScore int `json:"predicted_home_score"`
	PredictedAwayScore int `json:"predicted_away_score"`
}

type PredictionService interface {
	// SubmitPrediction creates or replaces the member's score guess.
	// Closes at kickoff; resubmitting an identical guess is allowed.
	SubmitPrediction(ctx context.Context, userID int, input SubmitPredictionInput) (*models.Prediction, error)
	ListMyPredictions(ctx context.Context, userID, leagueID int) ([]*models.Prediction, error)
	ListMatchPredictions(ctx context.Context, requesterID, matchID int) ([]*models.Prediction, error)
}

type predictionService struct {
	predRepo   repositories.PredictionRepository
	matchRepo  repositories.MatchRepository
	leagueRepo repositories.LeagueRepository
}

func NewPredictionService(
	predRepo repositories.PredictionRepository,
	matchRepo repositories.MatchRepository,
	leagueRepo repositories.LeagueRepository,
) PredictionService {
	return &predictionService{
		predRepo:   predRepo,
		matchRepo:  matchRepo,
		leagueRepo: leagueRepo,
	}
}

func (s *predictionService) SubmitPrediction(ctx context.Context, userID int, input SubmitPredictionInput) (*models.Prediction, error) {
	if input.PredictedHomeScore < 0 || input.PredictedAwayScore < 0 {
		return nil, ErrNegativeScore
	}

	match, err := s.matchRepo.GetByID(ctx, nil, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", input.MatchID, err)
	}
	// Дедлайн прогноза - время начала матча.
	if !time.Now().Before(match.KickoffTime) {
		return nil, ErrPredictionDeadline
	}

	league, err := s.leagueRepo.GetByID(ctx, nil, input.LeagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to load league %d: %w", input.LeagueID, err)
	}
	if league.TournamentID != match.TournamentID {
		return nil, fmt.Errorf("%w: match belongs to a different tournament", ErrValidationFailed)
	}

	isMember, err := s.leagueRepo.IsMember(ctx, nil, input.LeagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check league membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotLeagueMember
	}

	prediction := &models.Prediction{
		UserID:             userID,
		LeagueID:           input.LeagueID,
		MatchID:            input.MatchID,
		PredictedHomeScore: input.PredictedHomeScore,
		PredictedAwayScore: input.PredictedAwayScore,
	}
	if err := s.predRepo.Upsert(ctx, nil, prediction); err != nil {
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}
	return prediction, nil
}

func (s *predictionService) ListMyPredictions(ctx context.Context, userID, leagueID int) ([]*models.Prediction, error) {
	isMember, err := s.leagueRepo.IsMember(ctx, nil, leagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check league membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotLeagueMember
	}

	predictions, err := s.predRepo.ListByLeagueAndUser(ctx, nil, leagueID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return predictions, nil
}

// ListMatchPredictions exposes everyone's guesses for a match, but only
// once the match has kicked off. Before kickoff other members' guesses
// stay hidden.
func (s *predictionService) ListMatchPredictions(ctx context.Context, requesterID, matchID int) ([]*models.Prediction, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if time.Now().Before(match.KickoffTime) {
		return nil, ErrForbiddenOperation
	}

	predictions, err := s.predRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for match %d: %w", matchID, err)
	}

	// Показываем только прогнозы лиг, в которых состоит запрашивающий.
	visible := make([]*models.Prediction, 0, len(predictions))
	memberCache := make(map[int]bool)
	for _, p := range predictions {
		isMember, ok := memberCache[p.LeagueID]
		if !ok {
			isMember, err = s.leagueRepo.IsMember(ctx, nil, p.LeagueID, requesterID)
			if err != nil {
				return nil, fmt.Errorf("failed to check league membership: %w", err)
			}
			memberCache[p.LeagueID] = isMember
		}
		if isMember {
			visible = append(visible, p)
		}
	}
	return visible, nil
}
