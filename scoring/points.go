package scoring

import "github.com/Dosada05/prediction-league/models"

// CalculateMatchPoints computes the points a single prediction earns
// against a finalized score, using the owning league's point values.
//
// An exact score is exclusive: it returns PointsCorrectScore and never
// stacks with the outcome or goal-count rewards. Otherwise the reward
// accumulates: PointsCorrectOutcome when the predicted result
// (win/draw/loss) matches, plus PointsCorrectGoals when at least one
// side's goal count was predicted exactly.
func CalculateMatchPoints(predictedHome, predictedAway, actualHome, actualAway int, settings *models.LeagueSettings) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return settings.PointsCorrectScore
	}

	points := 0
	if sign(predictedHome-predictedAway) == sign(actualHome-actualAway) {
		points += settings.PointsCorrectOutcome
	}
	if predictedHome == actualHome || predictedAway == actualAway {
		points += settings.PointsCorrectGoals
	}
	return points
}

// sign compresses a goal difference into -1, 0 or 1; draws are 0.
func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
