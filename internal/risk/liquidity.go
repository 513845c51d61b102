package risk

import (
	"github.com/pegwatch/pkg/models"
)

// Liquidity scores concentration risk: the larger the share of value parked
// on a single chain or exchange, the worse. A missing profile scores a
// neutral 50 with data_available false since absence of indexer coverage is
// not itself a risk signal.
func Liquidity(profile *models.LiquidityProfile) *models.RiskFactorScore {
	if profile == nil || profile.TotalUSD <= 0 {
		return &models.RiskFactorScore{
			Score:         50,
			DataAvailable: false,
			Details:       map[string]interface{}{"reason": "no liquidity data"},
		}
	}

	maxShare := maxShareOf(profile.ChainShares)
	if dex := maxShareOf(profile.DexShares); dex > maxShare {
		maxShare = dex
	}

	var score float64
	var bucket string
	switch {
	case maxShare < 0.33:
		score, bucket = 85, "low"
	case maxShare < 0.66:
		score, bucket = 55, "medium"
	default:
		score, bucket = 25, "high"
	}

	if profile.ChainCount >= 3 {
		score += 5
	}
	if score > 100 {
		score = 100
	}

	return &models.RiskFactorScore{
		Score:         score,
		DataAvailable: true,
		Confidence:    1.0,
		Details: map[string]interface{}{
			"concentration": bucket,
			"max_share":     maxShare,
			"chain_count":   profile.ChainCount,
			"top_chain":     profile.TopChain,
			"top_dex":       profile.TopDex,
			"total_usd":     profile.TotalUSD,
		},
	}
}

func maxShareOf(shares map[string]float64) float64 {
	var max float64
	for _, s := range shares {
		if s > max {
			max = s
		}
	}
	return max
}
