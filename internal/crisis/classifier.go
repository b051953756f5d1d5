package crisis

import (
	"strings"

	"MateGuard/internal/models"
	"MateGuard/pkg/metrics"
)

// AssessRiskLevel classifies a user-authored message into a risk level.
// Pure and deterministic: same input, same output, no hidden state.
// Each keyword phrase counts at most once per message.
func AssessRiskLevel(message string) models.RiskLevel {
	level := classify(message)
	metrics.RecordAssessment(string(level))
	return level
}

func classify(message string) models.RiskLevel {
	lower := strings.ToLower(message)

	matches := make(map[category]int, len(crisisKeywords))
	score := 0
	categoriesHit := 0
	for cat, phrases := range crisisKeywords {
		n := 0
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				n++
			}
		}
		matches[cat] = n
		score += n * categoryWeights[cat]
		if n > 0 {
			categoriesHit++
		}
	}

	// 多类别同时命中风险更高
	if categoriesHit >= 2 {
		score += crossCategoryBonus
	}

	switch {
	case score >= 8 || (matches[catSuicide] > 0 && matches[catImmediate] > 0):
		return models.RiskCritical
	case score >= 5 || matches[catSuicide] > 0:
		return models.RiskHigh
	case score >= 3 || matches[catSelfHarm] > 0:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
