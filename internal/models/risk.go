package models

// RiskLevel 消息风险等级，低到高全序排列
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// AtLeast reports whether r is at or above other in severity.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// Triggers reports whether the level starts the emergency response.
// Only high and critical do.
func (r RiskLevel) Triggers() bool {
	return r.AtLeast(RiskHigh)
}

func (r RiskLevel) Valid() bool {
	_, ok := riskOrder[r]
	return ok
}
