package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
)

// Default point values applied to a new league until the creator tunes
// them.
const (
	defaultPointsCorrectScore   = 5
	defaultPointsCorrectOutcome = 2
	defaultPointsCorrectGoals   = 1
)

const inviteCodeAttempts = 5

type CreateLeagueInput struct {
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
}

type UpdateLeagueSettingsInput struct {
	PointsCorrectScore   int `json:"points_correct_score"`
	PointsCorrectOutcome int `json:"points_correct_outcome"`
	PointsCorrectGoals   int `json:"points_correct_goals"`
}

type LeagueService interface {
	// CreateLeague creates the league with default scoring settings and
	// the creator as its first member.
	CreateLeague(ctx context.Context, creatorID int, input CreateLeagueInput) (*models.League, error)
	GetLeagueByID(ctx context.Context, id int) (*models.League, error)
	ListMyLeagues(ctx context.Context, userID int) ([]*models.League, error)
	// JoinByInviteCode adds the user and seeds a zero-point standing row
	// so they appear in the table immediately.
	JoinByInviteCode(ctx context.Context, userID int, inviteCode string) (*models.League, error)
	// LeaveLeague removes the member together with their predictions and
	// standing, then reranks the remaining members.
	LeaveLeague(ctx context.Context, userID, leagueID int) error
	// ListMembers returns the league roster. Members only.
	ListMembers(ctx context.Context, requesterID, leagueID int) ([]*models.LeagueMember, error)
	// InviteByEmail mails the league's invite code to the address.
	// Members only.
	InviteByEmail(ctx context.Context, requesterID, leagueID int, email string) error
	// UploadLogo stores the league logo. Creator only.
	UploadLogo(ctx context.Context, requesterID, leagueID int, contentType string, file io.Reader) (*models.League, error)
	// UpdateSettings replaces the point values and rescores the whole
	// league so historical points match the new settings. Creator only.
	UpdateSettings(ctx context.Context, requesterID, leagueID int, input UpdateLeagueSettingsInput) (*models.LeagueSettings, error)
	GetSettings(ctx context.Context, leagueID int) (*models.LeagueSettings, error)
}

type leagueService struct {
	tx             repositories.Transactor
	leagueRepo     repositories.LeagueRepository
	tournamentRepo repositories.TournamentRepository
	predRepo       repositories.PredictionRepository
	bonusPredRepo  repositories.BonusPredictionRepository
	standingRepo   repositories.LeagueStandingRepository
	scoringService ScoringService
	emailService   EmailService
	uploader       storage.FileUploader
	recomputer     *standingsRecomputer
	locks          *LeagueLocker
	logger         *slog.Logger
}

func NewLeagueService(
	tx repositories.Transactor,
	leagueRepo repositories.LeagueRepository,
	tournamentRepo repositories.TournamentRepository,
	predRepo repositories.PredictionRepository,
	bonusPredRepo repositories.BonusPredictionRepository,
	standingRepo repositories.LeagueStandingRepository,
	scoringService ScoringService,
	emailService EmailService,
	uploader storage.FileUploader,
	locks *LeagueLocker,
	logger *slog.Logger,
) LeagueService {
	return &leagueService{
		tx:             tx,
		leagueRepo:     leagueRepo,
		tournamentRepo: tournamentRepo,
		predRepo:       predRepo,
		bonusPredRepo:  bonusPredRepo,
		standingRepo:   standingRepo,
		scoringService: scoringService,
		emailService:   emailService,
		uploader:       uploader,
		recomputer: &standingsRecomputer{
			leagueRepo:    leagueRepo,
			predRepo:      predRepo,
			bonusPredRepo: bonusPredRepo,
			standingRepo:  standingRepo,
		},
		locks:  locks,
		logger: logger,
	}
}

func (s *leagueService) CreateLeague(ctx context.Context, creatorID int, input CreateLeagueInput) (*models.League, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrLeagueNameRequired
	}

	if _, err := s.tournamentRepo.GetByID(ctx, nil, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to check tournament %d: %w", input.TournamentID, err)
	}

	var league *models.League
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
			code, codeErr := generateInviteCode()
			if codeErr != nil {
				return codeErr
			}
			league = &models.League{
				TournamentID: input.TournamentID,
				Name:         name,
				CreatorID:    creatorID,
				InviteCode:   code,
			}
			txErr = s.leagueRepo.Create(ctx, exec, league)
			if !errors.Is(txErr, repositories.ErrLeagueInviteCodeConflict) {
				break
			}
		}
		if txErr != nil {
			if errors.Is(txErr, repositories.ErrLeagueNameConflict) {
				return ErrLeagueNameConflict
			}
			return txErr
		}

		settings := &models.LeagueSettings{
			LeagueID:             league.ID,
			PointsCorrectScore:   defaultPointsCorrectScore,
			PointsCorrectOutcome: defaultPointsCorrectOutcome,
			PointsCorrectGoals:   defaultPointsCorrectGoals,
		}
		if settingsErr := s.leagueRepo.UpsertSettings(ctx, exec, settings); settingsErr != nil {
			return settingsErr
		}
		league.Settings = settings

		if memberErr := s.leagueRepo.AddMember(ctx, exec, league.ID, creatorID); memberErr != nil {
			return memberErr
		}
		return s.recomputer.recompute(ctx, exec, league.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}

	s.logger.InfoContext(ctx, "league created",
		slog.Int("league_id", league.ID), slog.Int("creator_id", creatorID))
	return league, nil
}

func (s *leagueService) GetLeagueByID(ctx context.Context, id int) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to get league %d: %w", id, err)
	}
	populateLeagueDetails(league, s.uploader)
	return league, nil
}

func (s *leagueService) ListMyLeagues(ctx context.Context, userID int) ([]*models.League, error) {
	leagues, err := s.leagueRepo.ListByMember(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues for user %d: %w", userID, err)
	}
	for _, league := range leagues {
		populateLeagueDetails(league, s.uploader)
	}
	return leagues, nil
}

func (s *leagueService) JoinByInviteCode(ctx context.Context, userID int, inviteCode string) (*models.League, error) {
	league, err := s.leagueRepo.GetByInviteCode(ctx, nil, strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}

	s.locks.Lock(league.ID)
	defer s.locks.Unlock(league.ID)

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if memberErr := s.leagueRepo.AddMember(ctx, exec, league.ID, userID); memberErr != nil {
			if errors.Is(memberErr, repositories.ErrLeagueMemberConflict) {
				return ErrLeagueMemberConflict
			}
			return memberErr
		}
		// Новый участник сразу появляется в таблице с нулём очков.
		return s.recomputer.recompute(ctx, exec, league.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user joined league",
		slog.Int("league_id", league.ID), slog.Int("user_id", userID))
	populateLeagueDetails(league, s.uploader)
	return league, nil
}

func (s *leagueService) LeaveLeague(ctx context.Context, userID, leagueID int) error {
	league, err := s.leagueRepo.GetByID(ctx, nil, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return ErrLeagueNotFound
		}
		return err
	}
	if league.CreatorID == userID {
		return fmt.Errorf("%w: the creator cannot leave their own league", ErrForbiddenOperation)
	}

	s.locks.Lock(leagueID)
	defer s.locks.Unlock(leagueID)

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if memberErr := s.leagueRepo.RemoveMember(ctx, exec, leagueID, userID); memberErr != nil {
			if errors.Is(memberErr, repositories.ErrLeagueMemberNotFound) {
				return ErrNotLeagueMember
			}
			return memberErr
		}
		if delErr := s.predRepo.DeleteByLeagueAndUser(ctx, exec, leagueID, userID); delErr != nil {
			return delErr
		}
		if delErr := s.bonusPredRepo.DeleteByLeagueAndUser(ctx, exec, leagueID, userID); delErr != nil {
			return delErr
		}
		if delErr := s.standingRepo.DeleteByLeagueAndUser(ctx, exec, leagueID, userID); delErr != nil {
			return delErr
		}
		return s.recomputer.recomputeRanks(ctx, exec, leagueID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user left league",
		slog.Int("league_id", leagueID), slog.Int("user_id", userID))
	return nil
}

func (s *leagueService) ListMembers(ctx context.Context, requesterID, leagueID int) ([]*models.LeagueMember, error) {
	if _, err := s.leagueRepo.GetByID(ctx, nil, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	isMember, err := s.leagueRepo.IsMember(ctx, nil, leagueID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership for league %d: %w", leagueID, err)
	}
	if !isMember {
		return nil, ErrNotLeagueMember
	}

	members, err := s.leagueRepo.ListMembers(ctx, nil, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of league %d: %w", leagueID, err)
	}
	return members, nil
}

func (s *leagueService) InviteByEmail(ctx context.Context, requesterID, leagueID int, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email address is required", ErrValidationFailed)
	}

	league, err := s.leagueRepo.GetByID(ctx, nil, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return ErrLeagueNotFound
		}
		return err
	}

	isMember, err := s.leagueRepo.IsMember(ctx, nil, leagueID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check membership for league %d: %w", leagueID, err)
	}
	if !isMember {
		return ErrNotLeagueMember
	}

	if err := s.emailService.SendLeagueInviteEmail(email, league.Name, league.InviteCode); err != nil {
		return fmt.Errorf("failed to send invite for league %d: %w", leagueID, err)
	}
	s.logger.InfoContext(ctx, "league invite sent",
		slog.Int("league_id", leagueID), slog.Int("user_id", requesterID))
	return nil
}

func (s *leagueService) UploadLogo(ctx context.Context, requesterID, leagueID int, contentType string, file io.Reader) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, nil, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	if league.CreatorID != requesterID {
		return nil, ErrForbiddenOperation
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	oldKey := league.LogoKey
	key := storage.LeagueLogoKey(leagueID, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload league logo: %w", err)
	}
	if err := s.leagueRepo.UpdateLogoKey(ctx, nil, leagueID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save logo key: %w", err)
	}
	league.LogoKey = &result.Key

	// Старый объект с другим расширением больше не нужен.
	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous league logo", slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	populateLeagueDetails(league, s.uploader)
	return league, nil
}

func (s *leagueService) UpdateSettings(ctx context.Context, requesterID, leagueID int, input UpdateLeagueSettingsInput) (*models.LeagueSettings, error) {
	if input.PointsCorrectScore < 0 || input.PointsCorrectOutcome < 0 || input.PointsCorrectGoals < 0 {
		return nil, fmt.Errorf("%w: point values must not be negative", ErrValidationFailed)
	}

	league, err := s.leagueRepo.GetByID(ctx, nil, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	if league.CreatorID != requesterID {
		return nil, ErrForbiddenOperation
	}

	settings := &models.LeagueSettings{
		LeagueID:             leagueID,
		PointsCorrectScore:   input.PointsCorrectScore,
		PointsCorrectOutcome: input.PointsCorrectOutcome,
		PointsCorrectGoals:   input.PointsCorrectGoals,
	}
	if err := s.leagueRepo.UpsertSettings(ctx, nil, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings for league %d: %w", leagueID, err)
	}

	// Старые очки считались по старым правилам; пересчитываем лигу
	// целиком, чтобы таблица соответствовала новым настройкам.
	if err := s.scoringService.RecalculateStandingsForLeague(ctx, leagueID); err != nil {
		return nil, fmt.Errorf("settings updated but recalculation failed: %w", err)
	}
	return settings, nil
}

func (s *leagueService) GetSettings(ctx context.Context, leagueID int) (*models.LeagueSettings, error) {
	settings, err := s.leagueRepo.GetSettings(ctx, nil, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueSettingsNotFound) {
			return nil, fmt.Errorf("%w: league %d", ErrLeagueSettingsMissing, leagueID)
		}
		return nil, err
	}
	return settings, nil
}

// generateInviteCode returns a short random hex code for sharing a
// league.
func generateInviteCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
