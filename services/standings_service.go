package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/scoring"
)

type StandingsService interface {
	// GetLeagueTable returns the league's standings in display order,
	// with user details and rank movement populated.
	GetLeagueTable(ctx context.Context, leagueID int) ([]*models.LeagueStanding, error)
}

type standingsService struct {
	leagueRepo   repositories.LeagueRepository
	standingRepo repositories.LeagueStandingRepository
}

func NewStandingsService(
	leagueRepo repositories.LeagueRepository,
	standingRepo repositories.LeagueStandingRepository,
) StandingsService {
	return &standingsService{
		leagueRepo:   leagueRepo,
		standingRepo: standingRepo,
	}
}

func (s *standingsService) GetLeagueTable(ctx context.Context, leagueID int) ([]*models.LeagueStanding, error) {
	if _, err := s.leagueRepo.GetByID(ctx, nil, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to load league %d: %w", leagueID, err)
	}

	standings, err := s.standingRepo.ListByLeague(ctx, nil, leagueID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for league %d: %w", leagueID, err)
	}

	members, err := s.leagueRepo.ListMembers(ctx, nil, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for league %d: %w", leagueID, err)
	}
	usersByID := make(map[int]*models.User, len(members))
	for _, m := range members {
		usersByID[m.UserID] = m.User
	}
	for _, st := range standings {
		st.User = usersByID[st.UserID]
	}
	return standings, nil
}

// standingsRecomputer implements the aggregation and rank-assignment
// phase shared by every scoring trigger. It always runs inside the
// trigger's transaction, under the league's lock.
type standingsRecomputer struct {
	leagueRepo    repositories.LeagueRepository
	predRepo      repositories.PredictionRepository
	bonusPredRepo repositories.BonusPredictionRepository
	standingRepo  repositories.LeagueStandingRepository
}

// recompute rebuilds every member's MatchPoints, BonusPoints and
// TotalPoints from the scored prediction rows (the source of truth),
// then reassigns ranks. It never drifts an existing total; each call
// recomputes fully so repeated triggers converge to the same state.
func (r *standingsRecomputer) recompute(ctx context.Context, exec repositories.SQLExecutor, leagueID int) error {
	members, err := r.leagueRepo.ListMembers(ctx, exec, leagueID)
	if err != nil {
		return fmt.Errorf("failed to list members for league %d: %w", leagueID, err)
	}
	if len(members) == 0 {
		return nil
	}

	matchPoints, err := r.predRepo.SumPointsByLeague(ctx, exec, leagueID)
	if err != nil {
		return err
	}
	bonusPoints, err := r.bonusPredRepo.SumPointsByLeague(ctx, exec, leagueID)
	if err != nil {
		return err
	}

	existing, err := r.standingRepo.ListByLeague(ctx, exec, leagueID, false)
	if err != nil {
		return err
	}
	byUser := make(map[int]*models.LeagueStanding, len(existing))
	for _, st := range existing {
		byUser[st.UserID] = st
	}

	standings := make([]*models.LeagueStanding, 0, len(members))
	for _, m := range members {
		st, ok := byUser[m.UserID]
		if !ok {
			st = &models.LeagueStanding{LeagueID: leagueID, UserID: m.UserID}
			if createErr := r.standingRepo.Create(ctx, exec, st); createErr != nil {
				return fmt.Errorf("failed to create standing for league %d user %d: %w", leagueID, m.UserID, createErr)
			}
		}
		st.MemberSince = m.JoinedAt
		st.MatchPoints = matchPoints[m.UserID]
		st.BonusPoints = bonusPoints[m.UserID]
		st.TotalPoints = st.MatchPoints + st.BonusPoints
		standings = append(standings, st)
	}

	scoring.AssignRanks(standings)

	for _, st := range standings {
		if err := r.standingRepo.Update(ctx, exec, st); err != nil {
			return fmt.Errorf("failed to update standing %d: %w", st.ID, err)
		}
	}
	return nil
}

// recomputeRanks reassigns ranks from the stored totals without
// re-aggregating points. Used when membership changes but no scores
// did (e.g. a member left the league).
func (r *standingsRecomputer) recomputeRanks(ctx context.Context, exec repositories.SQLExecutor, leagueID int) error {
	standings, err := r.standingRepo.ListByLeague(ctx, exec, leagueID, false)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		return nil
	}

	scoring.AssignRanks(standings)

	for _, st := range standings {
		st.UpdatedAt = time.Now()
		if err := r.standingRepo.Update(ctx, exec, st); err != nil {
			return fmt.Errorf("failed to update standing %d: %w", st.ID, err)
		}
	}
	return nil
}
