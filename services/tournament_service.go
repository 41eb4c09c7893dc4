package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
)

type CreateTournamentInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
	// AutoUpdateTournamentStatusesByDates flips upcoming tournaments to
	// active and active tournaments to completed once their dates pass.
	// Meant to be run periodically from a background loop.
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewTournamentService(tournamentRepo repositories.TournamentRepository, logger *slog.Logger) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		logger:         logger,
	}
}

func validateTournamentDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrValidationFailed)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)",
			ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:      name,
		Status:    models.TournamentStatusUpcoming,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, nil, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		tournament.Name = name
	}
	if !input.StartDate.IsZero() {
		tournament.StartDate = input.StartDate
	}
	if !input.EndDate.IsZero() {
		tournament.EndDate = input.EndDate
	}
	if err := validateTournamentDates(tournament.StartDate, tournament.EndDate); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return nil
}

func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	now := time.Now()

	upcoming := models.TournamentStatusUpcoming
	upcomingList, err := s.tournamentRepo.List(ctx, nil, &upcoming)
	if err != nil {
		return fmt.Errorf("failed to list upcoming tournaments: %w", err)
	}
	for _, t := range upcomingList {
		if !now.Before(t.StartDate) {
			if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.TournamentStatusActive); err != nil {
				s.logger.ErrorContext(ctx, "failed to activate tournament", slog.Int("tournament_id", t.ID), slog.Any("error", err))
				continue
			}
			s.logger.InfoContext(ctx, "tournament activated by schedule", slog.Int("tournament_id", t.ID))
		}
	}

	active := models.TournamentStatusActive
	activeList, err := s.tournamentRepo.List(ctx, nil, &active)
	if err != nil {
		return fmt.Errorf("failed to list active tournaments: %w", err)
	}
	for _, t := range activeList {
		if now.After(t.EndDate) {
			if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.TournamentStatusCompleted); err != nil {
				s.logger.ErrorContext(ctx, "failed to complete tournament", slog.Int("tournament_id", t.ID), slog.Any("error", err))
				continue
			}
			s.logger.InfoContext(ctx, "tournament completed by schedule", slog.Int("tournament_id", t.ID))
		}
	}
	return nil
}
