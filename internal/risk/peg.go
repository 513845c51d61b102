package risk

import (
	"math"

	"github.com/pegwatch/pkg/models"
)

// PegStability scores how tightly an asset has held its peg over a price
// history window. Piecewise on the maximum absolute deviation, then penalized
// when the mean deviation shows sustained drift rather than a single spike.
// An empty history scores zero with data_available false.
func PegStability(history []models.PricePoint) *models.RiskFactorScore {
	if len(history) == 0 {
		return &models.RiskFactorScore{
			Score:         0,
			DataAvailable: false,
			Details:       map[string]interface{}{"reason": "no price history"},
		}
	}

	var maxDev, sumDev float64
	for _, p := range history {
		dev := math.Abs(p.DeviationPercent)
		if dev > maxDev {
			maxDev = dev
		}
		sumDev += dev
	}
	meanDev := sumDev / float64(len(history))

	score := pegScoreForMax(maxDev)
	switch {
	case meanDev > 1.0:
		score *= 0.7
	case meanDev > 0.5:
		score *= 0.85
	case meanDev > 0.1:
		score *= 0.95
	}

	return &models.RiskFactorScore{
		Score:         score,
		DataAvailable: true,
		Confidence:    1.0,
		Details: map[string]interface{}{
			"max_deviation_percent":  maxDev,
			"mean_deviation_percent": meanDev,
			"sample_count":           len(history),
		},
	}
}

// pegScoreForMax maps the worst observed deviation to a base score with
// linear interpolation inside each bracket.
func pegScoreForMax(maxDev float64) float64 {
	switch {
	case maxDev < 0.5:
		return 100
	case maxDev < 2.0:
		return 80 + (2.0-maxDev)/(2.0-0.5)*20
	case maxDev < 5.0:
		return 60 + (5.0-maxDev)/(5.0-2.0)*20
	case maxDev < 10.0:
		return 40 + (10.0-maxDev)/(10.0-5.0)*20
	default:
		return math.Max(0, 40-(maxDev-10)*2)
	}
}

// DepegEvents extracts excursions beyond 5% deviation from a time-ascending
// history, recording recovery time when the price later returns to within 1%.
func DepegEvents(history []models.PricePoint) []models.DepegEvent {
	var events []models.DepegEvent
	inEvent := false
	for i, p := range history {
		dev := math.Abs(p.DeviationPercent)
		if !inEvent && dev > 5.0 {
			inEvent = true
			event := models.DepegEvent{
				TimestampMs:      p.TimestampMs,
				Price:            p.Price,
				DeviationPercent: p.DeviationPercent,
			}
			for _, later := range history[i+1:] {
				if math.Abs(later.DeviationPercent) < 1.0 {
					hours := float64(later.TimestampMs-p.TimestampMs) / 3600000.0
					event.Recovered = true
					event.RecoveryHours = &hours
					break
				}
			}
			events = append(events, event)
		}
		if inEvent && dev < 1.0 {
			inEvent = false
		}
	}
	return events
}
