package app

import "quizhub-service/internal/domain"

// Aggregate summarizes raw scores and completion times. Empty input yields zeros.
func Aggregate(submissions []domain.Submission) domain.Stats {
	stats := domain.Stats{Count: len(submissions)}
	if len(submissions) == 0 {
		return stats
	}

	var totalScore, totalTime int
	stats.HighestScore = submissions[0].Score
	stats.LowestScore = submissions[0].Score
	for _, s := range submissions {
		totalScore += s.Score
		totalTime += s.CompletionTimeSeconds
		if s.Score > stats.HighestScore {
			stats.HighestScore = s.Score
		}
		if s.Score < stats.LowestScore {
			stats.LowestScore = s.Score
		}
	}
	stats.AverageScore = float64(totalScore) / float64(len(submissions))
	stats.AverageCompletionTimeSeconds = float64(totalTime) / float64(len(submissions))
	return stats
}
