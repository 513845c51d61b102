package risk

import (
	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/pkg/models"
)

// AuditStatus scores audit history. A curated well-audited-issuer entry wins
// outright; otherwise discovered audits earn 50 plus 15 per audit up to
// three, capped at 95 since live discovery never matches a vetted profile.
// Nothing found at all defaults to a conservative 25 with data_available
// false, reflecting unknown rather than proven-bad history.
func AuditStatus(profile *curated.AuditProfile, found []models.AuditRecord) *models.RiskFactorScore {
	if profile != nil {
		return &models.RiskFactorScore{
			Score:         float64(profile.Score),
			DataAvailable: true,
			Confidence:    0.9,
			Details: map[string]interface{}{
				"firms":  profile.Firms,
				"source": "curated",
			},
		}
	}

	if len(found) > 0 {
		counted := len(found)
		if counted > 3 {
			counted = 3
		}
		score := 50 + float64(15*counted)
		if score > 95 {
			score = 95
		}

		firms := make([]string, 0, len(found))
		for _, r := range found {
			firms = append(firms, r.Firm)
		}
		return &models.RiskFactorScore{
			Score:         score,
			DataAvailable: true,
			Confidence:    0.7,
			Details: map[string]interface{}{
				"audit_count": len(found),
				"firms":       firms,
				"source":      "discovered",
			},
		}
	}

	return &models.RiskFactorScore{
		Score:         25,
		DataAvailable: false,
		Degraded:      true,
		Details:       map[string]interface{}{"reason": "no audit history found"},
	}
}
