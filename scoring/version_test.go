package scoring

import (
	"testing"

	"github.com/Dosada05/prediction-league/models"
	"github.com/stretchr/testify/assert"
)

func TestPredictionScoreState(t *testing.T) {
	tests := []struct {
		name           string
		scoredAt       *int
		currentVersion int
		wantKind       ScoreStateKind
	}{
		{"never scored", nil, 0, ScoreStateUnscored},
		{"current", intPtr(2), 2, ScoreStateCurrent},
		{"stale after correction", intPtr(1), 2, ScoreStateStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Prediction{ScoredResultVersion: tt.scoredAt}
			state := PredictionScoreState(p, tt.currentVersion)
			assert.Equal(t, tt.wantKind, state.Kind)
			if tt.scoredAt != nil {
				assert.Equal(t, *tt.scoredAt, state.Version)
			}
		})
	}
}

func TestNeedsScoring(t *testing.T) {
	assert.True(t, NeedsScoring(&models.Prediction{}, 0))
	assert.True(t, NeedsScoring(&models.Prediction{ScoredResultVersion: intPtr(1)}, 2))
	assert.False(t, NeedsScoring(&models.Prediction{ScoredResultVersion: intPtr(2)}, 2))
}

func TestCheckResultVersion(t *testing.T) {
	home, away := 2, 1

	t.Run("match without result rejected", func(t *testing.T) {
		match := &models.Match{ID: 1, Status: models.MatchStatusLive, ResultVersion: 0}
		err := CheckResultVersion(match, 0)
		assert.ErrorIs(t, err, ErrMatchMissingResult)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		match := &models.Match{ID: 1, HomeScore: &home, AwayScore: &away, ResultVersion: 2}
		err := CheckResultVersion(match, 1)
		assert.ErrorIs(t, err, ErrResultVersionMismatch)
	})

	t.Run("current version accepted", func(t *testing.T) {
		match := &models.Match{ID: 1, HomeScore: &home, AwayScore: &away, ResultVersion: 2}
		assert.NoError(t, CheckResultVersion(match, 2))
	})
}
