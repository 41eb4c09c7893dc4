package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/scoring"
	"golang.org/x/sync/errgroup"
)

// leagueRecalcWorkers bounds the tournament-wide fan-out; leagues are
// independent and recalculated in parallel.
const leagueRecalcWorkers = 4

// ScoringService converts mutable facts (match results, bonus
// resolutions, user predictions) into consistent, rank-ordered league
// standings. Every entry point is one atomic unit of work: read the
// affected rows, compute, write all point/standing/rank updates, and
// commit; any error rolls the whole trigger back.
type ScoringService interface {
	// ScorePredictionsForMatch scores every prediction for the match,
	// across all leagues it is predicted in, against the given result
	// version. Predictions already at resultVersion are skipped, so a
	// duplicate trigger is a safe no-op. Returns the number scored.
	ScorePredictionsForMatch(ctx context.Context, matchID, resultVersion int) (int, error)
	// ScoreBonusPredictions scores every submitted answer for a
	// resolved bonus question. Re-invocation recomputes the same
	// points; safe but wasteful. Returns the number scored.
	ScoreBonusPredictions(ctx context.Context, bonusQuestionID int) (int, error)
	// RecalculateStandingsForLeague is the reconciliation path: every
	// prediction and bonus prediction in the league is rescored from
	// current results, ignoring the stored version bookkeeping.
	RecalculateStandingsForLeague(ctx context.Context, leagueID int) error
	// RecalculateRanksForLeague reassigns ranks from stored totals,
	// e.g. after a membership change.
	RecalculateRanksForLeague(ctx context.Context, leagueID int) error
	// RecalculateStandingsForTournament fans the league rebuild out
	// over every league of the tournament.
	RecalculateStandingsForTournament(ctx context.Context, tournamentID int) error
}

type scoringService struct {
	tx            repositories.Transactor
	matchRepo     repositories.MatchRepository
	predRepo      repositories.PredictionRepository
	questionRepo  repositories.BonusQuestionRepository
	bonusPredRepo repositories.BonusPredictionRepository
	leagueRepo    repositories.LeagueRepository
	recomputer    *standingsRecomputer
	locks         *LeagueLocker
	logger        *slog.Logger
}

func NewScoringService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	predRepo repositories.PredictionRepository,
	questionRepo repositories.BonusQuestionRepository,
	bonusPredRepo repositories.BonusPredictionRepository,
	leagueRepo repositories.LeagueRepository,
	standingRepo repositories.LeagueStandingRepository,
	locks *LeagueLocker,
	logger *slog.Logger,
) ScoringService {
	return &scoringService{
		tx:            tx,
		matchRepo:     matchRepo,
		predRepo:      predRepo,
		questionRepo:  questionRepo,
		bonusPredRepo: bonusPredRepo,
		leagueRepo:    leagueRepo,
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

func (s *scoringService) ScorePredictionsForMatch(ctx context.Context, matchID, resultVersion int) (int, error) {
	// Validate the trigger and discover the league set before taking
	// locks; the authoritative pass repeats the reads inside the
	// transaction.
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return 0, ErrMatchNotFound
		}
		return 0, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if err := s.checkResultVersion(match, resultVersion); err != nil {
		return 0, err
	}

	preview, err := s.predRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to list predictions for match %d: %w", matchID, err)
	}
	unlock := s.locks.LockMany(distinctLeagueIDs(preview))
	defer unlock()

	scored := 0
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if err := s.checkResultVersion(match, resultVersion); err != nil {
			return err
		}

		predictions, err := s.predRepo.ListByMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}

		settingsByLeague := make(map[int]*models.LeagueSettings)
		missingSettings := make(map[int]bool)
		affected := make(map[int]bool)
		now := time.Now()

		for _, p := range predictions {
			if !scoring.NeedsScoring(p, resultVersion) {
				continue
			}

			settings, ok := settingsByLeague[p.LeagueID]
			if !ok && !missingSettings[p.LeagueID] {
				settings, err = s.leagueRepo.GetSettings(ctx, exec, p.LeagueID)
				switch {
				case errors.Is(err, repositories.ErrLeagueSettingsNotFound):
					// Configuration error for that league only; the
					// rest of the batch still scores.
					missingSettings[p.LeagueID] = true
					s.logger.WarnContext(ctx, "league has no scoring settings, skipping its predictions",
						slog.Int("league_id", p.LeagueID), slog.Int("match_id", matchID))
				case err != nil:
					return err
				default:
					settingsByLeague[p.LeagueID] = settings
				}
			}
			if missingSettings[p.LeagueID] {
				continue
			}

			points := scoring.CalculateMatchPoints(
				p.PredictedHomeScore, p.PredictedAwayScore,
				*match.HomeScore, *match.AwayScore,
				settings,
			)
			if err := s.predRepo.UpdateScore(ctx, exec, p.ID, points, resultVersion, now); err != nil {
				return err
			}
			scored++
			affected[p.LeagueID] = true
		}

		return s.recomputeAffected(ctx, exec, affected)
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "scored predictions for match",
		slog.Int("match_id", matchID), slog.Int("result_version", resultVersion), slog.Int("scored", scored))
	return scored, nil
}

func (s *scoringService) ScoreBonusPredictions(ctx context.Context, bonusQuestionID int) (int, error) {
	question, err := s.questionRepo.GetByID(ctx, nil, bonusQuestionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBonusQuestionNotFound) {
			return 0, ErrBonusQuestionNotFound
		}
		return 0, fmt.Errorf("failed to load bonus question %d: %w", bonusQuestionID, err)
	}
	if !question.IsResolved {
		return 0, fmt.Errorf("%w: question %d", ErrBonusQuestionNotResolved, bonusQuestionID)
	}

	preview, err := s.bonusPredRepo.ListByQuestion(ctx, nil, bonusQuestionID)
	if err != nil {
		return 0, fmt.Errorf("failed to list bonus predictions for question %d: %w", bonusQuestionID, err)
	}
	leagueIDs := make([]int, 0)
	seen := make(map[int]bool)
	for _, p := range preview {
		if !seen[p.LeagueID] {
			seen[p.LeagueID] = true
			leagueIDs = append(leagueIDs, p.LeagueID)
		}
	}
	unlock := s.locks.LockMany(leagueIDs)
	defer unlock()

	scored := 0
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		question, err := s.questionRepo.GetByID(ctx, exec, bonusQuestionID)
		if err != nil {
			return err
		}
		if !question.IsResolved {
			return fmt.Errorf("%w: question %d", ErrBonusQuestionNotResolved, bonusQuestionID)
		}

		predictions, err := s.bonusPredRepo.ListByQuestion(ctx, exec, bonusQuestionID)
		if err != nil {
			return err
		}

		affected := make(map[int]bool)
		now := time.Now()
		for _, p := range predictions {
			points := scoring.ResolveBonus(p, question)
			if err := s.bonusPredRepo.UpdateScore(ctx, exec, p.ID, points, now); err != nil {
				return err
			}
			scored++
			affected[p.LeagueID] = true
		}

		return s.recomputeAffected(ctx, exec, affected)
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "scored bonus predictions",
		slog.Int("bonus_question_id", bonusQuestionID), slog.Int("scored", scored))
	return scored, nil
}

func (s *scoringService) RecalculateStandingsForLeague(ctx context.Context, leagueID int) error {
	s.locks.Lock(leagueID)
	defer s.locks.Unlock(leagueID)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		league, err := s.leagueRepo.GetByID(ctx, exec, leagueID)
		if err != nil {
			if errors.Is(err, repositories.ErrLeagueNotFound) {
				return ErrLeagueNotFound
			}
			return err
		}

		// The trigger is scoped to exactly this league, so missing
		// settings is fatal, not a skip-with-warning.
		settings, err := s.leagueRepo.GetSettings(ctx, exec, leagueID)
		if err != nil {
			if errors.Is(err, repositories.ErrLeagueSettingsNotFound) {
				return fmt.Errorf("%w: league %d", ErrLeagueSettingsMissing, leagueID)
			}
			return err
		}

		if err := s.rescoreLeaguePredictions(ctx, exec, league, settings); err != nil {
			return err
		}
		if err := s.rescoreLeagueBonusPredictions(ctx, exec, league); err != nil {
			return err
		}
		return s.recomputer.recompute(ctx, exec, leagueID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "recalculated league from scratch", slog.Int("league_id", leagueID))
	return nil
}

// rescoreLeaguePredictions recomputes every prediction of the league
// against the current match results, ignoring the stored
// ScoredResultVersion bookkeeping. Predictions for matches without a
// finalized score are left untouched.
func (s *scoringService) rescoreLeaguePredictions(ctx context.Context, exec repositories.SQLExecutor, league *models.League, settings *models.LeagueSettings) error {
	matches, err := s.matchRepo.ListByTournament(ctx, exec, league.TournamentID, nil)
	if err != nil {
		return err
	}
	matchesByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchesByID[m.ID] = m
	}

	predictions, err := s.predRepo.ListByLeague(ctx, exec, league.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, p := range predictions {
		match, ok := matchesByID[p.MatchID]
		if !ok || !match.HasResult() {
			continue
		}
		points := scoring.CalculateMatchPoints(
			p.PredictedHomeScore, p.PredictedAwayScore,
			*match.HomeScore, *match.AwayScore,
			settings,
		)
		if err := s.predRepo.UpdateScore(ctx, exec, p.ID, points, match.ResultVersion, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *scoringService) rescoreLeagueBonusPredictions(ctx context.Context, exec repositories.SQLExecutor, league *models.League) error {
	questions, err := s.questionRepo.ListByTournament(ctx, exec, league.TournamentID)
	if err != nil {
		return err
	}
	questionsByID := make(map[int]*models.BonusQuestion, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	predictions, err := s.bonusPredRepo.ListByLeague(ctx, exec, league.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, p := range predictions {
		question, ok := questionsByID[p.BonusQuestionID]
		if !ok || !question.IsResolved {
			continue
		}
		points := scoring.ResolveBonus(p, question)
		if err := s.bonusPredRepo.UpdateScore(ctx, exec, p.ID, points, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *scoringService) RecalculateRanksForLeague(ctx context.Context, leagueID int) error {
	s.locks.Lock(leagueID)
	defer s.locks.Unlock(leagueID)

	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.leagueRepo.GetByID(ctx, exec, leagueID); err != nil {
			if errors.Is(err, repositories.ErrLeagueNotFound) {
				return ErrLeagueNotFound
			}
			return err
		}
		return s.recomputer.recomputeRanks(ctx, exec, leagueID)
	})
}

func (s *scoringService) RecalculateStandingsForTournament(ctx context.Context, tournamentID int) error {
	leagueIDs, err := s.leagueRepo.ListIDsByTournament(ctx, nil, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list leagues for tournament %d: %w", tournamentID, err)
	}

	// Leagues are independent; each rebuild commits on its own and
	// they run in parallel, bounded by the worker pool.
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(leagueRecalcWorkers)
	for _, leagueID := range leagueIDs {
		leagueID := leagueID
		g.Go(func() error {
			if err := s.RecalculateStandingsForLeague(gCtx, leagueID); err != nil {
				return fmt.Errorf("league %d: %w", leagueID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tournament %d recalculation failed: %w", tournamentID, err)
	}

	s.logger.InfoContext(ctx, "recalculated tournament standings",
		slog.Int("tournament_id", tournamentID), slog.Int("leagues", len(leagueIDs)))
	return nil
}

func (s *scoringService) checkResultVersion(match *models.Match, resultVersion int) error {
	if err := scoring.CheckResultVersion(match, resultVersion); err != nil {
		switch {
		case errors.Is(err, scoring.ErrMatchMissingResult):
			return fmt.Errorf("%w: match %d", ErrMatchNotFinished, match.ID)
		case errors.Is(err, scoring.ErrResultVersionMismatch):
			return fmt.Errorf("%w: match %d: %v", ErrResultVersionMismatch, match.ID, err)
		}
		return err
	}
	return nil
}

func (s *scoringService) recomputeAffected(ctx context.Context, exec repositories.SQLExecutor, affected map[int]bool) error {
	for leagueID := range affected {
		if err := s.recomputer.recompute(ctx, exec, leagueID); err != nil {
			return fmt.Errorf("failed to recompute standings for league %d: %w", leagueID, err)
		}
	}
	return nil
}

func distinctLeagueIDs(predictions []*models.Prediction) []int {
	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, p := range predictions {
		if !seen[p.LeagueID] {
			seen[p.LeagueID] = true
			ids = append(ids, p.LeagueID)
		}
	}
	return ids
}
