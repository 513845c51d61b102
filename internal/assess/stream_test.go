package assess

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/pkg/models"
)

func newAssembler() *Assembler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewAssembler(log)
}

func framesFrom(frames ...models.Frame) <-chan models.Frame {
	ch := make(chan models.Frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return ch
}

func TestCollectAssemblesAllTiers(t *testing.T) {
	now := time.Now().UTC()
	got, err := newAssembler().Collect("USDC", framesFrom(
		models.Frame{Tier: 1, Data: &models.Tier1Result{PegStatus: "stable"}, Timestamp: now},
		models.Frame{Tier: 2, Data: &models.Tier2Result{}, Timestamp: now},
		models.Frame{Tier: 3, Data: &models.Tier3Result{OverallScore: 88}, Complete: true, Timestamp: now},
	))

	require.NoError(t, err)
	assert.Equal(t, "USDC", got.Symbol)
	require.NotNil(t, got.Tier1)
	assert.Equal(t, "stable", got.Tier1.PegStatus)
	require.NotNil(t, got.Tier2)
	require.NotNil(t, got.Tier3)
	assert.Equal(t, 88, got.Tier3.OverallScore)
	assert.True(t, got.Complete)
}

func TestCollectDecodesSerializedFrames(t *testing.T) {
	// Replayed frames carry generic maps instead of typed pointers.
	got, err := newAssembler().Collect("DAI", framesFrom(
		models.Frame{Tier: 1, Data: map[string]interface{}{
			"peg_status":        "stable",
			"preliminary_score": 75.0,
		}},
		models.Frame{Tier: 3, Data: map[string]interface{}{
			"overall_score": 72.0,
			"risk_level":    "medium",
		}, Complete: true},
	))

	require.NoError(t, err)
	require.NotNil(t, got.Tier1)
	assert.Equal(t, 75.0, got.Tier1.PreliminaryScore)
	require.NotNil(t, got.Tier3)
	assert.Equal(t, 72, got.Tier3.OverallScore)
}

func TestCollectTerminalError(t *testing.T) {
	got, err := newAssembler().Collect("NOPE", framesFrom(
		models.Frame{Tier: "error", Data: map[string]interface{}{
			"code":    "not_found",
			"message": "unknown ticker NOPE",
		}, Complete: true},
	))

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, models.IsNotFound(err))
}

func TestCollectTierErrorLeavesTierAbsent(t *testing.T) {
	got, err := newAssembler().Collect("USDC", framesFrom(
		models.Frame{Tier: 1, Data: &models.Tier1Result{}},
		models.Frame{Tier: "tier2-error", Data: map[string]interface{}{"code": "partial_tier_failure"}},
		models.Frame{Tier: 3, Data: &models.Tier3Result{}, Complete: true},
	))

	require.NoError(t, err)
	assert.NotNil(t, got.Tier1)
	assert.Nil(t, got.Tier2)
	assert.NotNil(t, got.Tier3)
	assert.True(t, got.Complete)
}
