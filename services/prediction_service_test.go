package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitPrediction(t *testing.T) {
	ctx := context.Background()

	setup := func() (*scoringEnv, PredictionService, int, int) {
		env := newScoringEnv()
		leagueID := env.addLeague(1, defaultSettings, 10, 11)
		match := env.addMatch(1)
		match.KickoffTime = time.Now().Add(2 * time.Hour)
		svc := NewPredictionService(env.predRepo, env.matchRepo, env.leagueRepo)
		return env, svc, leagueID, match.ID
	}

	t.Run("creates and replaces the guess before kickoff", func(t *testing.T) {
		env, svc, leagueID, matchID := setup()

		p, err := svc.SubmitPrediction(ctx, 10, SubmitPredictionInput{
			LeagueID: leagueID, MatchID: matchID, PredictedHomeScore: 2, PredictedAwayScore: 1,
		})
		require.NoError(t, err)
		require.NotZero(t, p.ID)

		updated, err := svc.SubmitPrediction(ctx, 10, SubmitPredictionInput{
			LeagueID: leagueID, MatchID: matchID, PredictedHomeScore: 0, PredictedAwayScore: 0,
		})
		require.NoError(t, err)
		assert.Equal(t, p.ID, updated.ID)
		assert.Equal(t, 0, env.store.predictions[p.ID].PredictedHomeScore)
	})

	t.Run("closes at kickoff", func(t *testing.T) {
		env, svc, leagueID, matchID := setup()
		env.store.matches[matchID].KickoffTime = time.Now().Add(-time.Minute)

		_, err := svc.SubmitPrediction(ctx, 10, SubmitPredictionInput{
			LeagueID: leagueID, MatchID: matchID, PredictedHomeScore: 1, PredictedAwayScore: 0,
		})
		assert.ErrorIs(t, err, ErrPredictionDeadline)
	})

	t.Run("requires league membership", func(t *testing.T) {
		_, svc, leagueID, matchID := setup()
		_, err := svc.SubmitPrediction(ctx, 99, SubmitPredictionInput{
			LeagueID: leagueID, MatchID: matchID, PredictedHomeScore: 1, PredictedAwayScore: 0,
		})
		assert.ErrorIs(t, err, ErrNotLeagueMember)
	})

	t.Run("rejects negative scores", func(t *testing.T) {
		_, svc, leagueID, matchID := setup()
		_, err := svc.SubmitPrediction(ctx, 10, SubmitPredictionInput{
			LeagueID: leagueID, MatchID: matchID, PredictedHomeScore: -1, PredictedAwayScore: 0,
		})
		assert.ErrorIs(t, err, ErrNegativeScore)
	})

	t.Run("rejects a league from another tournament", func(t *testing.T) {
		env, svc, _, matchID := setup()
		otherLeague := env.addLeague(2, defaultSettings, 10)
		_, err := svc.SubmitPrediction(ctx, 10, SubmitPredictionInput{
			LeagueID: otherLeague, MatchID: matchID, PredictedHomeScore: 1, PredictedAwayScore: 0,
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestListMatchPredictions(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	leagueID := env.addLeague(1, defaultSettings, 10, 11)
	strangerLeague := env.addLeague(1, defaultSettings, 20)
	match := env.addMatch(1)
	match.KickoffTime = time.Now().Add(-time.Hour)

	env.addPrediction(10, leagueID, match.ID, 2, 1)
	env.addPrediction(11, leagueID, match.ID, 1, 1)
	env.addPrediction(20, strangerLeague, match.ID, 0, 0)

	svc := NewPredictionService(env.predRepo, env.matchRepo, env.leagueRepo)

	t.Run("shows only leagues the requester belongs to", func(t *testing.T) {
		predictions, err := svc.ListMatchPredictions(ctx, 10, match.ID)
		require.NoError(t, err)
		require.Len(t, predictions, 2)
		for _, p := range predictions {
			assert.Equal(t, leagueID, p.LeagueID)
		}
	})

	t.Run("hidden before kickoff", func(t *testing.T) {
		match.KickoffTime = time.Now().Add(time.Hour)
		defer func() { match.KickoffTime = time.Now().Add(-time.Hour) }()

		_, err := svc.ListMatchPredictions(ctx, 10, match.ID)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})
}
