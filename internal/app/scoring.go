package app

import "quizion-service/internal/domain"

const (
	// pointsPerCorrect is the fixed score increment for a correct answer.
	pointsPerCorrect = 10
	// xpPerLevel is how much cumulative XP one level spans.
	xpPerLevel = 100
)

// Score returns the running score after one answer.
func Score(correct bool, current int) int {
	if correct {
		return current + pointsPerCorrect
	}
	return current
}

// UpdateTopicStats returns the tally after one answer: total always
// increments, correct only on a correct answer.
func UpdateTopicStats(stats domain.TopicStats, correct bool) domain.TopicStats {
	stats.Total++
	if correct {
		stats.Correct++
	}
	return stats
}

// Level derives the user's level from cumulative XP. Level 1 starts at 0 XP.
func Level(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/xpPerLevel + 1
}
