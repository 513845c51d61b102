package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/pkg/models"
)

func points(devs ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(devs))
	for i, d := range devs {
		out[i] = models.PricePoint{
			TimestampMs:      int64(i) * 3600000,
			Price:            1.0 + d/100,
			DeviationPercent: d,
		}
	}
	return out
}

func TestPegStabilityNoHistory(t *testing.T) {
	score := PegStability(nil)
	require.NotNil(t, score)
	assert.Equal(t, 0.0, score.Score)
	assert.False(t, score.DataAvailable)
}

func TestPegStabilityTightPeg(t *testing.T) {
	score := PegStability(points(0.01, 0.02, 0.05, 0.03))
	assert.Equal(t, 100.0, score.Score)
	assert.True(t, score.DataAvailable)
}

func TestPegStabilityBrackets(t *testing.T) {
	cases := []struct {
		name   string
		maxDev float64
		want   float64
	}{
		{"bracket boundary 0.5", 0.5, 100},
		{"mid second bracket", 1.25, 90},
		{"bracket boundary 2", 2.0, 80},
		{"mid third bracket", 3.5, 70},
		{"bracket boundary 5", 5.0, 60},
		{"mid fourth bracket", 7.5, 50},
		{"at 10", 10.0, 40},
		{"deep depeg 20", 20.0, 20},
		{"floor", 40.0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, pegScoreForMax(tc.maxDev), 0.01)
		})
	}
}

func TestPegStabilityMeanPenalty(t *testing.T) {
	// Max deviation 0.4 scores 100 on its own; a drifting mean drags it down.
	drifting := PegStability(points(0.4, 0.4, 0.4, 0.4))
	assert.InDelta(t, 95.0, drifting.Score, 0.01) // mean 0.4 > 0.1 bracket

	heavy := PegStability(points(1.9, 1.9, 1.9))
	// Base 80 + interpolation, then x0.7 for mean > 1%.
	assert.Less(t, heavy.Score, 60.0)
	assert.True(t, heavy.DataAvailable)
}

func TestDepegEventsDetection(t *testing.T) {
	history := points(0.1, 6.0, 3.0, 0.5, 0.2)
	events := DepegEvents(history)
	require.Len(t, events, 1)
	assert.Equal(t, 6.0, events[0].DeviationPercent)
	assert.True(t, events[0].Recovered)
	require.NotNil(t, events[0].RecoveryHours)
	assert.InDelta(t, 2.0, *events[0].RecoveryHours, 0.01)
}

func TestDepegEventsNoRecovery(t *testing.T) {
	history := points(0.1, 8.0, 7.0, 6.0)
	events := DepegEvents(history)
	require.Len(t, events, 1)
	assert.False(t, events[0].Recovered)
	assert.Nil(t, events[0].RecoveryHours)
}

func TestDepegEventsSeparateExcursions(t *testing.T) {
	history := points(0.1, 6.0, 0.5, 7.0, 0.3)
	events := DepegEvents(history)
	assert.Len(t, events, 2)
}
