package game

import "time"

const baseScore = 1000

// Score computes the points awarded for a correct answer. Faster answers
// earn up to a 50% time bonus, and each point of streak adds 10% of the
// base score. Callers guarantee 0 <= timeTaken <= timeLimit; late answers
// are rejected before scoring.
func Score(timeTaken, timeLimit time.Duration, streak int) int {
	timeRatio := 1 - timeTaken.Seconds()/timeLimit.Seconds()
	timeBonus := int(float64(baseScore) * timeRatio * 0.5)
	streakBonus := int(float64(baseScore) * float64(streak) * 0.1)

	total := baseScore + timeBonus + streakBonus
	if total < 0 {
		total = 0
	}

	return total
}
