package models

// RiskFactorScore is the output of one risk factor calculator. Score runs
// 0-100 where 100 is lowest risk. DataAvailable distinguishes "genuinely low
// risk" from "no evidence found".
type RiskFactorScore struct {
	Score         float64                `json:"score"`
	DataAvailable bool                   `json:"data_available"`
	Confidence    float64                `json:"confidence"`
	Degraded      bool                   `json:"degraded,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// RiskLevel buckets an overall score for display.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// LevelForScore maps an overall 0-100 score to a risk level.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 50:
		return RiskModerate
	case score >= 25:
		return RiskHigh
	default:
		return RiskCritical
	}
}
