package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/prediction-league/live"
	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type CreateMatchInput struct {
	TournamentID int       `json:"tournament_id"`
	HomeTeamID   int       `json:"home_team_id"`
	AwayTeamID   int       `json:"away_team_id"`
	KickoffTime  time.Time `json:"kickoff_time"`
}

type FinalizeMatchInput struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatchByID(ctx context.Context, id int) (*models.Match, error)
	ListMatchesByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id int, status models.MatchStatus) error
	// FinalizeMatchResult writes the final score and immediately scores
	// every prediction for the match. Calling it again with a different
	// score produces a new result version and rescoring overwrites the
	// previous points.
	FinalizeMatchResult(ctx context.Context, id int, input FinalizeMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	scoringService ScoringService
	hub            *live.Hub
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	scoringService ScoringService,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		scoringService: scoringService,
		hub:            hub,
		logger:         logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.HomeTeamID == input.AwayTeamID {
		return nil, fmt.Errorf("%w: a team cannot play itself", ErrValidationFailed)
	}
	if input.KickoffTime.IsZero() {
		return nil, fmt.Errorf("%w: kickoff time is required", ErrValidationFailed)
	}

	if _, err := s.tournamentRepo.GetByID(ctx, nil, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to check tournament %d: %w", input.TournamentID, err)
	}

	match := &models.Match{
		TournamentID: input.TournamentID,
		HomeTeamID:   input.HomeTeamID,
		AwayTeamID:   input.AwayTeamID,
		Status:       models.MatchStatusScheduled,
		KickoffTime:  input.KickoffTime,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchTeamInvalid):
			return nil, ErrTeamNotFound
		case errors.Is(err, repositories.ErrMatchTournamentInvalid):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.Event{
		Type:    live.EventMatchCreated,
		Payload: match,
	})
	return match, nil
}

func (s *matchService) GetMatchByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	s.populateTeams(ctx, match)
	return match, nil
}

func (s *matchService) ListMatchesByTournament(ctx context.Context, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	for _, m := range matches {
		s.populateTeams(ctx, m)
	}
	return matches, nil
}

func (s *matchService) UpdateMatchStatus(ctx context.Context, id int, status models.MatchStatus) error {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return err
	}

	if err := s.matchRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to update match %d status: %w", id, err)
	}

	if status == models.MatchStatusLive {
		match.Status = status
		s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.Event{
			Type:    live.EventMatchLive,
			Payload: match,
		})
	}
	return nil
}

func (s *matchService) FinalizeMatchResult(ctx context.Context, id int, input FinalizeMatchInput) (*models.Match, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, ErrMatchInvalidScore
	}

	newVersion, err := s.matchRepo.FinalizeResult(ctx, nil, id, input.HomeScore, input.AwayScore)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to finalize match %d: %w", id, err)
	}

	scored, err := s.scoringService.ScorePredictionsForMatch(ctx, id, newVersion)
	if err != nil {
		// Результат записан; оценка может быть повторена через
		// пересчёт лиги. Наружу отдаём ошибку как есть.
		return nil, fmt.Errorf("result saved (version %d) but scoring failed: %w", newVersion, err)
	}
	s.logger.InfoContext(ctx, "match finalized",
		slog.Int("match_id", id), slog.Int("result_version", newVersion), slog.Int("predictions_scored", scored))

	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), live.Event{
		Type:    live.EventMatchFinalized,
		Payload: match,
	})
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	if err := s.matchRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return nil
}

// populateTeams attaches team details for display; lookup failures are
// logged and the match is returned without them.
func (s *matchService) populateTeams(ctx context.Context, match *models.Match) {
	home, err := s.teamRepo.GetByID(ctx, match.HomeTeamID)
	if err == nil {
		match.HomeTeam = home
	} else {
		s.logger.WarnContext(ctx, "failed to load home team", slog.Int("team_id", match.HomeTeamID), slog.Any("error", err))
	}
	away, err := s.teamRepo.GetByID(ctx, match.AwayTeamID)
	if err == nil {
		match.AwayTeam = away
	} else {
		s.logger.WarnContext(ctx, "failed to load away team", slog.Int("team_id", match.AwayTeamID), slog.Any("error", err))
	}
}
