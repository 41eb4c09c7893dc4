package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int        { return &v }
func strPtr(v string) *string  { return &v }
func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
func baseTime() time.Time      { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

type scoringEnv struct {
	store         *memStore
	matchRepo     *fakeMatchRepo
	predRepo      *fakePredictionRepo
	questionRepo  *fakeBonusQuestionRepo
	bonusPredRepo *fakeBonusPredictionRepo
	leagueRepo    *fakeLeagueRepo
	standingRepo  *fakeStandingRepo
	svc           ScoringService
}

func newScoringEnv() *scoringEnv {
	store := newMemStore()
	env := &scoringEnv{
		store:         store,
		matchRepo:     &fakeMatchRepo{store: store},
		predRepo:      &fakePredictionRepo{store: store},
		questionRepo:  &fakeBonusQuestionRepo{store: store},
		bonusPredRepo: &fakeBonusPredictionRepo{store: store},
		leagueRepo:    &fakeLeagueRepo{store: store},
		standingRepo:  &fakeStandingRepo{store: store},
	}
	env.svc = NewScoringService(
		fakeTransactor{},
		env.matchRepo,
		env.predRepo,
		env.questionRepo,
		env.bonusPredRepo,
		env.leagueRepo,
		env.standingRepo,
		NewLeagueLocker(),
		testLogger(),
	)
	return env
}

// addLeague seeds a league with members joined one hour apart, in the
// order given.
func (e *scoringEnv) addLeague(tournamentID int, settings *models.LeagueSettings, memberIDs ...int) int {
	league := &models.League{TournamentID: tournamentID, Name: "league", CreatorID: memberIDs[0]}
	league.ID = e.store.id()
	e.store.leagues[league.ID] = league

	if settings != nil {
		s := *settings
		s.LeagueID = league.ID
		e.store.settings[league.ID] = &s
	}
	for i, userID := range memberIDs {
		e.store.members[league.ID] = append(e.store.members[league.ID], &models.LeagueMember{
			LeagueID: league.ID,
			UserID:   userID,
			JoinedAt: baseTime().Add(time.Duration(i) * time.Hour),
		})
	}
	return league.ID
}

func (e *scoringEnv) addMatch(tournamentID int) *models.Match {
	match := &models.Match{
		ID:           e.store.id(),
		TournamentID: tournamentID,
		HomeTeamID:   100,
		AwayTeamID:   101,
		Status:       models.MatchStatusScheduled,
		KickoffTime:  baseTime(),
	}
	e.store.matches[match.ID] = match
	return match
}

func (e *scoringEnv) addPrediction(userID, leagueID, matchID, home, away int) *models.Prediction {
	p := &models.Prediction{
		ID:                 e.store.id(),
		UserID:             userID,
		LeagueID:           leagueID,
		MatchID:            matchID,
		PredictedHomeScore: home,
		PredictedAwayScore: away,
	}
	e.store.predictions[p.ID] = p
	return p
}

func (e *scoringEnv) finalize(t *testing.T, matchID, home, away int) int {
	t.Helper()
	version, err := e.matchRepo.FinalizeResult(context.Background(), nil, matchID, home, away)
	require.NoError(t, err)
	return version
}

func (e *scoringEnv) standingsByUser(t *testing.T, leagueID int) map[int]*models.LeagueStanding {
	t.Helper()
	standings, err := e.standingRepo.ListByLeague(context.Background(), nil, leagueID, false)
	require.NoError(t, err)
	byUser := make(map[int]*models.LeagueStanding, len(standings))
	for _, st := range standings {
		byUser[st.UserID] = st
	}
	return byUser
}

var defaultSettings = &models.LeagueSettings{
	PointsCorrectScore:   5,
	PointsCorrectOutcome: 2,
	PointsCorrectGoals:   1,
}

func TestScorePredictionsForMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("scores all predictions and rebuilds the table", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11, 12)
		match := env.addMatch(1)

		exact := env.addPrediction(10, leagueID, match.ID, 2, 1)
		partial := env.addPrediction(11, leagueID, match.ID, 3, 1) // исход + голы гостей
		miss := env.addPrediction(12, leagueID, match.ID, 0, 0)

		version := env.finalize(t, match.ID, 2, 1)
		scored, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)
		assert.Equal(t, 3, scored)

		assert.Equal(t, 5, env.store.predictions[exact.ID].PointsEarned)
		assert.Equal(t, 3, env.store.predictions[partial.ID].PointsEarned)
		assert.Equal(t, 0, env.store.predictions[miss.ID].PointsEarned)
		assert.True(t, env.store.predictions[exact.ID].IsScored)

		byUser := env.standingsByUser(t, leagueID)
		require.Len(t, byUser, 3)
		assert.Equal(t, 5, byUser[10].TotalPoints)
		assert.Equal(t, 1, byUser[10].Rank)
		assert.Equal(t, 2, byUser[11].Rank)
		assert.Equal(t, 3, byUser[12].Rank)
		assert.Nil(t, byUser[10].PreviousRank)
	})

	t.Run("is idempotent for the same result version", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11)
		match := env.addMatch(1)
		p := env.addPrediction(10, leagueID, match.ID, 2, 1)
		env.addPrediction(11, leagueID, match.ID, 1, 1)

		version := env.finalize(t, match.ID, 2, 1)
		scored, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)
		require.Equal(t, 2, scored)

		firstScoredAt := *env.store.predictions[p.ID].ScoredAt
		firstStandings := env.standingsByUser(t, leagueID)

		scored, err = env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)
		assert.Equal(t, 0, scored)
		assert.Equal(t, firstScoredAt, *env.store.predictions[p.ID].ScoredAt)

		secondStandings := env.standingsByUser(t, leagueID)
		for userID, st := range firstStandings {
			assert.Equal(t, st.TotalPoints, secondStandings[userID].TotalPoints)
			assert.Equal(t, st.Rank, secondStandings[userID].Rank)
		}
	})

	t.Run("rescores when the result is corrected", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11)
		match := env.addMatch(1)
		p1 := env.addPrediction(10, leagueID, match.ID, 2, 1)
		p2 := env.addPrediction(11, leagueID, match.ID, 1, 0)

		v1 := env.finalize(t, match.ID, 2, 1)
		_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, v1)
		require.NoError(t, err)
		assert.Equal(t, 5, env.store.predictions[p1.ID].PointsEarned)

		// Результат исправили: теперь 1:0.
		v2 := env.finalize(t, match.ID, 1, 0)
		require.Equal(t, v1+1, v2)
		scored, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, v2)
		require.NoError(t, err)
		assert.Equal(t, 2, scored)
		assert.Equal(t, 3, env.store.predictions[p1.ID].PointsEarned) // исход + голы гостей
		assert.Equal(t, 5, env.store.predictions[p2.ID].PointsEarned)

		byUser := env.standingsByUser(t, leagueID)
		assert.Equal(t, 5, byUser[11].TotalPoints)
		assert.Equal(t, 1, byUser[11].Rank)
		assert.Equal(t, 2, byUser[10].Rank)
		// Движение в таблице относительно прошлого пересчёта.
		require.NotNil(t, byUser[11].PreviousRank)
		assert.Equal(t, 2, *byUser[11].PreviousRank)
	})

	t.Run("rejects stale or future result versions", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10)
		match := env.addMatch(1)
		env.addPrediction(10, leagueID, match.ID, 1, 0)
		version := env.finalize(t, match.ID, 1, 0)

		_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version+1)
		assert.ErrorIs(t, err, ErrResultVersionMismatch)
	})

	t.Run("rejects matches without a result", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10)
		match := env.addMatch(1)
		env.addPrediction(10, leagueID, match.ID, 1, 0)

		_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, 1)
		assert.ErrorIs(t, err, ErrMatchNotFinished)
	})

	t.Run("unknown match", func(t *testing.T) {
		env := newScoringEnv()
		_, err := env.svc.ScorePredictionsForMatch(ctx, 999, 1)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("skips leagues without settings and scores the rest", func(t *testing.T) {
		env := newScoringEnv()
		configured := env.addLeague(1, defaultSettings, 10)
		broken := env.addLeague(1, nil, 20)
		match := env.addMatch(1)
		ok := env.addPrediction(10, configured, match.ID, 2, 1)
		skipped := env.addPrediction(20, broken, match.ID, 2, 1)

		version := env.finalize(t, match.ID, 2, 1)
		scored, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)
		assert.Equal(t, 1, scored)
		assert.True(t, env.store.predictions[ok.ID].IsScored)
		assert.False(t, env.store.predictions[skipped.ID].IsScored)
	})

	t.Run("same prediction scores differently per league settings", func(t *testing.T) {
		env := newScoringEnv()
		leagueA := env.addLeague(1, &models.LeagueSettings{PointsCorrectScore: 5, PointsCorrectOutcome: 2, PointsCorrectGoals: 1}, 10)
		leagueB := env.addLeague(1, &models.LeagueSettings{PointsCorrectScore: 10, PointsCorrectOutcome: 3, PointsCorrectGoals: 2}, 10)
		match := env.addMatch(1)
		inA := env.addPrediction(10, leagueA, match.ID, 2, 1)
		inB := env.addPrediction(10, leagueB, match.ID, 2, 1)

		version := env.finalize(t, match.ID, 2, 1)
		scored, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)
		assert.Equal(t, 2, scored)
		assert.Equal(t, 5, env.store.predictions[inA.ID].PointsEarned)
		assert.Equal(t, 10, env.store.predictions[inB.ID].PointsEarned)
	})
}

func TestScoreBonusPredictions(t *testing.T) {
	ctx := context.Background()

	seedQuestion := func(env *scoringEnv, resolved bool) *models.BonusQuestion {
		q := &models.BonusQuestion{
			ID:           env.store.id(),
			TournamentID: 1,
			QuestionType: models.BonusQuestionTournamentWinner,
			Text:         "Кто выиграет турнир?",
			Points:       15,
			Deadline:     baseTime(),
			IsResolved:   resolved,
		}
		if resolved {
			q.AnswerTeamID = intPtr(7)
			now := baseTime()
			q.ResolvedAt = &now
		}
		env.store.questions[q.ID] = q
		return q
	}

	t.Run("awards question points for correct answers", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11)
		q := seedQuestion(env, true)

		right := &models.BonusPrediction{ID: env.store.id(), UserID: 10, LeagueID: leagueID, BonusQuestionID: q.ID, AnswerTeamID: intPtr(7)}
		wrong := &models.BonusPrediction{ID: env.store.id(), UserID: 11, LeagueID: leagueID, BonusQuestionID: q.ID, AnswerTeamID: intPtr(8)}
		env.store.bonusPredictions[right.ID] = right
		env.store.bonusPredictions[wrong.ID] = wrong

		scored, err := env.svc.ScoreBonusPredictions(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, scored)
		assert.Equal(t, 15, *env.store.bonusPredictions[right.ID].PointsEarned)
		assert.Equal(t, 0, *env.store.bonusPredictions[wrong.ID].PointsEarned)

		byUser := env.standingsByUser(t, leagueID)
		assert.Equal(t, 15, byUser[10].BonusPoints)
		assert.Equal(t, 15, byUser[10].TotalPoints)
		assert.Equal(t, 1, byUser[10].Rank)
		assert.Equal(t, 0, byUser[11].TotalPoints)
	})

	t.Run("text answers are matched case-insensitively", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10)
		q := seedQuestion(env, true)
		q.AnswerTeamID = nil
		q.AnswerText = strPtr("Haaland")

		p := &models.BonusPrediction{ID: env.store.id(), UserID: 10, LeagueID: leagueID, BonusQuestionID: q.ID, AnswerText: strPtr("  haaland ")}
		env.store.bonusPredictions[p.ID] = p

		_, err := env.svc.ScoreBonusPredictions(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, *env.store.bonusPredictions[p.ID].PointsEarned)
	})

	t.Run("refuses to score an unresolved question", func(t *testing.T) {
		env := newScoringEnv()
		q := seedQuestion(env, false)
		_, err := env.svc.ScoreBonusPredictions(ctx, q.ID)
		assert.ErrorIs(t, err, ErrBonusQuestionNotResolved)
	})

	t.Run("unknown question", func(t *testing.T) {
		env := newScoringEnv()
		_, err := env.svc.ScoreBonusPredictions(ctx, 999)
		assert.ErrorIs(t, err, ErrBonusQuestionNotFound)
	})
}

func TestRecalculateStandingsForLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs drifted totals from the prediction rows", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11)
		match := env.addMatch(1)
		env.addPrediction(10, leagueID, match.ID, 2, 1)
		env.addPrediction(11, leagueID, match.ID, 0, 0)
		version := env.finalize(t, match.ID, 2, 1)
		_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
		require.NoError(t, err)

		// Портим агрегаты.
		for _, st := range env.store.standings {
			st.TotalPoints = 999
			st.MatchPoints = 999
		}

		require.NoError(t, env.svc.RecalculateStandingsForLeague(ctx, leagueID))

		byUser := env.standingsByUser(t, leagueID)
		assert.Equal(t, 5, byUser[10].TotalPoints)
		assert.Equal(t, 0, byUser[11].TotalPoints)
		assert.Equal(t, 1, byUser[10].Rank)
	})

	t.Run("rescores against the current match results", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10)
		match := env.addMatch(1)
		p := env.addPrediction(10, leagueID, match.ID, 2, 1)
		env.finalize(t, match.ID, 2, 1)

		// Оценка матча потерялась (например, сбой после финализации).
		require.False(t, env.store.predictions[p.ID].IsScored)

		require.NoError(t, env.svc.RecalculateStandingsForLeague(ctx, leagueID))
		assert.True(t, env.store.predictions[p.ID].IsScored)
		assert.Equal(t, 5, env.store.predictions[p.ID].PointsEarned)

		byUser := env.standingsByUser(t, leagueID)
		assert.Equal(t, 5, byUser[10].TotalPoints)
	})

	t.Run("missing settings is fatal for a single-league rebuild", func(t *testing.T) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, nil, 10)
		err := env.svc.RecalculateStandingsForLeague(ctx, leagueID)
		assert.ErrorIs(t, err, ErrLeagueSettingsMissing)
	})

	t.Run("unknown league", func(t *testing.T) {
		env := newScoringEnv()
		err := env.svc.RecalculateStandingsForLeague(ctx, 999)
		assert.ErrorIs(t, err, ErrLeagueNotFound)
	})
}

func TestRecalculateRanksForLeague(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	leagueID := env.addLeague(1, defaultSettings, 10, 11, 12)
	match := env.addMatch(1)
	env.addPrediction(10, leagueID, match.ID, 2, 1)
	env.addPrediction(11, leagueID, match.ID, 3, 1)
	env.addPrediction(12, leagueID, match.ID, 0, 0)
	version := env.finalize(t, match.ID, 2, 1)
	_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
	require.NoError(t, err)

	// Последний участник ушёл; его строка уже удалена.
	require.NoError(t, env.standingRepo.DeleteByLeagueAndUser(ctx, nil, leagueID, 12))
	env.store.members[leagueID] = env.store.members[leagueID][:2]

	require.NoError(t, env.svc.RecalculateRanksForLeague(ctx, leagueID))

	byUser := env.standingsByUser(t, leagueID)
	require.Len(t, byUser, 2)
	assert.Equal(t, 1, byUser[10].Rank)
	assert.Equal(t, 2, byUser[11].Rank)
}

func TestRecalculateStandingsForTournament(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	leagueA := env.addLeague(1, defaultSettings, 10, 11)
	leagueB := env.addLeague(1, &models.LeagueSettings{PointsCorrectScore: 10, PointsCorrectOutcome: 3, PointsCorrectGoals: 2}, 20)
	otherTournament := env.addLeague(2, defaultSettings, 30)

	match := env.addMatch(1)
	env.addPrediction(10, leagueA, match.ID, 2, 1)
	env.addPrediction(11, leagueA, match.ID, 1, 1)
	env.addPrediction(20, leagueB, match.ID, 2, 1)
	env.finalize(t, match.ID, 2, 1)

	require.NoError(t, env.svc.RecalculateStandingsForTournament(ctx, 1))

	byUserA := env.standingsByUser(t, leagueA)
	assert.Equal(t, 5, byUserA[10].TotalPoints)
	assert.Equal(t, 0, byUserA[11].TotalPoints)

	byUserB := env.standingsByUser(t, leagueB)
	assert.Equal(t, 10, byUserB[20].TotalPoints)

	// Лига чужого турнира не затронута.
	assert.Empty(t, env.standingsByUser(t, otherTournament))
}

func TestScoringTieBreaks(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	// Участник 11 вступил позже 10, но у обоих одинаковые очки.
	leagueID := env.addLeague(1, defaultSettings, 10, 11, 12)
	match := env.addMatch(1)
	env.addPrediction(10, leagueID, match.ID, 2, 1)
	env.addPrediction(11, leagueID, match.ID, 2, 1)
	env.addPrediction(12, leagueID, match.ID, 0, 0)

	version := env.finalize(t, match.ID, 2, 1)
	_, err := env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
	require.NoError(t, err)

	byUser := env.standingsByUser(t, leagueID)
	// Равные очки делят ранг, следующий ранг учитывает пропуск.
	assert.Equal(t, 1, byUser[10].Rank)
	assert.Equal(t, 1, byUser[11].Rank)
	assert.Equal(t, 3, byUser[12].Rank)

	standings, err := env.standingRepo.ListByLeague(ctx, nil, leagueID, true)
	require.NoError(t, err)
	// В порядке отображения раньше идёт тот, кто раньше вступил.
	assert.Equal(t, 10, standings[0].UserID)
	assert.Equal(t, 11, standings[1].UserID)
}

// Пересчёт турнира гоняет лиги в несколько горутин; тест ловит гонки
// по общему хранилищу при большом числе лиг (запускать с -race).
func TestRecalculateStandingsForTournamentConcurrency(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv()

	match := env.addMatch(1)
	type pair struct{ leagueID, userA, userB int }
	pairs := make([]pair, 0, 64)
	for i := 0; i < 64; i++ {
		userA := 1000 + i*2
		userB := userA + 1
		leagueID := env.addLeague(1, defaultSettings, userA, userB)
		env.addPrediction(userA, leagueID, match.ID, 2, 1)
		env.addPrediction(userB, leagueID, match.ID, 0, 0)
		pairs = append(pairs, pair{leagueID: leagueID, userA: userA, userB: userB})
	}
	env.finalize(t, match.ID, 2, 1)

	require.NoError(t, env.svc.RecalculateStandingsForTournament(ctx, 1))

	for _, p := range pairs {
		byUser := env.standingsByUser(t, p.leagueID)
		require.Len(t, byUser, 2)
		assert.Equal(t, defaultSettings.PointsCorrectScore, byUser[p.userA].TotalPoints)
		assert.Equal(t, 0, byUser[p.userB].TotalPoints)
		assert.Equal(t, 1, byUser[p.userA].Rank)
		assert.Equal(t, 2, byUser[p.userB].Rank)
	}
}

func TestFinalizeResultVersionBumpsOnlyOnChange(t *testing.T) {
	env := newScoringEnv()
	match := env.addMatch(1)

	v1 := env.finalize(t, match.ID, 2, 1)

	// Повторная отправка того же счёта не двигает версию, поэтому не
	// перезапускает оценку прогнозов.
	v2 := env.finalize(t, match.ID, 2, 1)
	assert.Equal(t, v1, v2)

	// Исправление счёта двигает.
	v3 := env.finalize(t, match.ID, 2, 2)
	assert.Equal(t, v1+1, v3)
}
