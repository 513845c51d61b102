package risk

import (
	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/pkg/models"
)

// OracleSetup scores an asset's price-oracle arrangement. Known
// configurations come from the curated table; everything else is inferred
// from the pegging mechanism, since the mechanism dictates what kind of
// oracle the issuer plausibly runs.
func OracleSetup(cfg *curated.Oracle, peggingType models.PeggingType) *models.RiskFactorScore {
	if cfg != nil {
		score := float64(cfg.Decentralization+cfg.Reputation) / 2
		return &models.RiskFactorScore{
			Score:         score,
			DataAvailable: true,
			Confidence:    0.9,
			Details: map[string]interface{}{
				"provider":         cfg.Provider,
				"decentralization": cfg.Decentralization,
				"reputation":       cfg.Reputation,
				"source":           "curated",
			},
		}
	}

	var score float64
	var assumption string
	switch peggingType {
	case models.PegFiatBacked:
		// Reserve attestations rather than on-chain feeds; a single
		// trusted reporter.
		score, assumption = 55, "single attestation-style oracle"
	case models.PegCryptoCollateral, models.PegCommodityBacked:
		score, assumption = 70, "multi-oracle price feeds"
	case models.PegAlgorithmic:
		score, assumption = 40, "protocol-internal pricing"
	default:
		score, assumption = 40, "unknown mechanism"
	}

	return &models.RiskFactorScore{
		Score:         score,
		DataAvailable: true,
		Confidence:    0.4,
		Degraded:      true,
		Details: map[string]interface{}{
			"assumption":   assumption,
			"pegging_type": string(peggingType),
			"source":       "inferred",
		},
	}
}
