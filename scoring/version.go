package scoring

import (
	"errors"
	"fmt"

	"github.com/Dosada05/prediction-league/models"
)

var (
	ErrMatchMissingResult    = errors.New("match has no finalized score")
	ErrResultVersionMismatch = errors.New("result version is not the match's current version")
)

// ScoreStateKind classifies a prediction against its match's current
// ResultVersion.
type ScoreStateKind int

const (
	// ScoreStateUnscored - the prediction has never been scored.
	ScoreStateUnscored ScoreStateKind = iota
	// ScoreStateCurrent - scored against the current result version.
	ScoreStateCurrent
	// ScoreStateStale - scored against an older version; the match's
	// finalized score was corrected since.
	ScoreStateStale
)

type ScoreState struct {
	Kind ScoreStateKind
	// Version the prediction was last scored at. Meaningful only for
	// Current and Stale.
	Version int
}

// PredictionScoreState resolves the tagged score state for a prediction
// given the match's current ResultVersion.
func PredictionScoreState(p *models.Prediction, currentResultVersion int) ScoreState {
	if p.ScoredResultVersion == nil {
		return ScoreState{Kind: ScoreStateUnscored}
	}
	v := *p.ScoredResultVersion
	if v == currentResultVersion {
		return ScoreState{Kind: ScoreStateCurrent, Version: v}
	}
	return ScoreState{Kind: ScoreStateStale, Version: v}
}

// NeedsScoring reports whether a prediction must be (re)scored for the
// given result version. Predictions already at the version are a no-op.
func NeedsScoring(p *models.Prediction, resultVersion int) bool {
	return PredictionScoreState(p, resultVersion).Kind != ScoreStateCurrent
}

// CheckResultVersion validates a scoring trigger: the match must carry
// a finalized score, and the trigger's version must be the match's
// current one. A stale or future version is a caller error and is
// rejected before any side effect.
func CheckResultVersion(match *models.Match, resultVersion int) error {
	if !match.HasResult() {
		return fmt.Errorf("%w: match %d", ErrMatchMissingResult, match.ID)
	}
	if resultVersion != match.ResultVersion {
		return fmt.Errorf("%w: got %d, current %d (match %d)",
			ErrResultVersionMismatch, resultVersion, match.ResultVersion, match.ID)
	}
	return nil
}
