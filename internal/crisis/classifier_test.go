package crisis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"MateGuard/internal/models"
)

func TestClassifierDeterminism(t *testing.T) {
	inputs := []string{
		"",
		"hello there",
		"I want to kill myself tonight",
		"I might overdose on pills",
	}
	for _, msg := range inputs {
		first := AssessRiskLevel(msg)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, AssessRiskLevel(msg), "input %q must classify identically", msg)
		}
	}
}

func TestSuicidePlusImmediateIsAlwaysCritical(t *testing.T) {
	// suicide 与 immediate 同时命中时无条件 critical，与总分无关
	cases := []string{
		"I want to kill myself tonight",
		"can't go on, about to give it all up today",
		"no point living, right now is the time",
	}
	for _, msg := range cases {
		assert.Equal(t, models.RiskCritical, AssessRiskLevel(msg), "message: %q", msg)
	}
}

func TestThresholdBoundaries(t *testing.T) {
	// 两个自伤关键词：3*2=6 ≥ 5 → high
	assert.Equal(t, models.RiskHigh, AssessRiskLevel("I might overdose on pills"))

	// 一个自伤关键词：3 ≥ 3 → medium（selfHarm>0 本身也强制 medium）
	assert.Equal(t, models.RiskMedium, AssessRiskLevel("I keep thinking about cutting"))

	// 一个自杀关键词即 high，即使分数只有 4
	assert.Equal(t, models.RiskHigh, AssessRiskLevel("some days I just can't go on"))
}

func TestCrossCategoryBonus(t *testing.T) {
	// hopelessness(2) + abuse(3) + 跨类别加成(3) = 8 → critical
	assert.Equal(t, models.RiskCritical, AssessRiskLevel("there is no hope after all this violence"))

	// 单独的 hopelessness 一条只有 2 分 → low
	assert.Equal(t, models.RiskLow, AssessRiskLevel("I've been feeling really hopeless lately"))

	// 单独的 abuse 一条只有 3 分 → medium
	assert.Equal(t, models.RiskMedium, AssessRiskLevel("the violence at home is getting worse"))
}

func TestDistinctPhrasesCountOnce(t *testing.T) {
	// 同一短语出现多次只计一次
	assert.Equal(t, models.RiskMedium, AssessRiskLevel("cutting cutting cutting"))
}

func TestEmptyAndBenignAreLow(t *testing.T) {
	assert.Equal(t, models.RiskLow, AssessRiskLevel(""))
	assert.Equal(t, models.RiskLow, AssessRiskLevel("what a lovely sunny afternoon"))
}

func TestCaseInsensitive(t *testing.T) {
	assert.Equal(t, AssessRiskLevel("I WANT TO KILL MYSELF TONIGHT"),
		AssessRiskLevel("i want to kill myself tonight"))
}

func TestKnownSubstringLimitation(t *testing.T) {
	// 朴素子串匹配的已知误报："pills" 在无害语境下仍然命中。
	// 这是保留的设计限制，不是要修的缺陷。
	assert.Equal(t, models.RiskMedium, AssessRiskLevel("took my vitamin pills this morning"))
}
