package risk

import (
	"math"

	"github.com/pegwatch/pkg/models"
)

// Factor names used in the overall weighting and the assessment report.
const (
	FactorPegStability = "peg_stability"
	FactorTransparency = "transparency"
	FactorLiquidity    = "liquidity"
	FactorOracle       = "oracle"
	FactorAudit        = "audit"
)

var weights = map[string]float64{
	FactorPegStability: 0.40,
	FactorTransparency: 0.20,
	FactorLiquidity:    0.15,
	FactorOracle:       0.15,
	FactorAudit:        0.10,
}

// Overall combines the factor scores into the weighted composite, rounded to
// the nearest integer and clamped to [0,100]. A factor missing from the map
// contributes zero at full weight, which keeps an absent factor visibly
// expensive rather than silently renormalized away.
func Overall(factors map[string]*models.RiskFactorScore) int {
	var sum float64
	for name, weight := range weights {
		if f, ok := factors[name]; ok && f != nil {
			sum += f.Score * weight
		}
	}
	score := int(math.Round(sum))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
