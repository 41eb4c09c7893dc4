package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
)

type CreateTeamInput struct {
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]*models.Team, error)
	UpdateTeam(ctx context.Context, id int, input CreateTeamInput) (*models.Team, error)
	UploadCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, logger *slog.Logger) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{
		Name:      name,
		ShortCode: strings.ToUpper(strings.TrimSpace(input.ShortCode)),
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	populateTeamDetails(team, s.uploader)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, t := range teams {
		populateTeamDetails(t, s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, id int, input CreateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		team.Name = name
	}
	if code := strings.TrimSpace(input.ShortCode); code != "" {
		team.ShortCode = strings.ToUpper(code)
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", id, err)
	}
	populateTeamDetails(team, s.uploader)
	return team, nil
}

func (s *teamService) UploadCrest(ctx context.Context, teamID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	oldKey := team.CrestKey
	key := storage.TeamCrestKey(teamID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload crest: %w", err)
	}
	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save crest key: %w", err)
	}

	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous crest", slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	team.CrestKey = &result.Key
	populateTeamDetails(team, s.uploader)
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, id int) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return nil
}
