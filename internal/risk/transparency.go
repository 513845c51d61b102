package risk

import (
	"strings"

	"github.com/pegwatch/internal/audits"
	"github.com/pegwatch/pkg/models"
)

// Transparency scores the best-known transparency record. Points accumulate
// for having any dashboard at all, for proof of reserves, for the standing of
// the attestation firm, for update cadence, and for verification status,
// capped at 100. No record scores zero with data_available false.
func Transparency(record *models.TransparencyRecord) *models.RiskFactorScore {
	if record == nil {
		return &models.RiskFactorScore{
			Score:         0,
			DataAvailable: false,
			Details:       map[string]interface{}{"reason": "no transparency evidence"},
		}
	}

	var score float64
	breakdown := map[string]interface{}{}

	if record.DashboardURL != "" || record.AttestationProvider != "" {
		score += 20
		breakdown["base"] = 20
	}
	if record.HasProofOfReserves {
		score += 30
		breakdown["proof_of_reserves"] = 30
	}

	switch audits.FirmTier(record.AttestationProvider) {
	case 1:
		score += 30
		breakdown["attestation_tier"] = 30
	case 2:
		score += 20
		breakdown["attestation_tier"] = 20
	default:
		if record.AttestationProvider != "" {
			score += 10
			breakdown["attestation_tier"] = 10
		}
	}

	switch strings.ToLower(record.UpdateFrequency) {
	case "real-time", "daily":
		score += 15
		breakdown["update_frequency"] = 15
	case "weekly":
		score += 10
		breakdown["update_frequency"] = 10
	case "monthly":
		score += 5
		breakdown["update_frequency"] = 5
	}

	switch strings.ToLower(record.VerificationStatus) {
	case "verified":
		score += 5
		breakdown["verification"] = 5
	case "unverified":
		score += 2
		breakdown["verification"] = 2
	}

	if score > 100 {
		score = 100
	}
	breakdown["dashboard_url"] = record.DashboardURL
	breakdown["sources"] = record.Sources

	return &models.RiskFactorScore{
		Score:         score,
		DataAvailable: true,
		Confidence:    record.Confidence,
		Details:       breakdown,
	}
}
