package scoring

import (
	"strings"

	"github.com/Dosada05/prediction-league/models"
)

// ResolveBonus returns the points a bonus prediction earns against a
// resolved question: the question's configured point value when the
// answer is correct, zero otherwise.
//
// When the question carries a team answer, correctness is team-id
// equality. Otherwise the submitted text is compared to the canonical
// text case-insensitively after trimming whitespace.
//
// Must only be called once the question is resolved; an unresolved
// question yields zero.
func ResolveBonus(prediction *models.BonusPrediction, question *models.BonusQuestion) int {
	if !question.IsResolved {
		return 0
	}

	if question.AnswerTeamID != nil {
		if prediction.AnswerTeamID != nil && *prediction.AnswerTeamID == *question.AnswerTeamID {
			return question.Points
		}
		return 0
	}

	if question.AnswerText != nil && prediction.AnswerText != nil {
		submitted := strings.TrimSpace(*prediction.AnswerText)
		canonical := strings.TrimSpace(*question.AnswerText)
		if submitted != "" && strings.EqualFold(submitted, canonical) {
			return question.Points
		}
	}
	return 0
}
