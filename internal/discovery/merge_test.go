package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/pkg/models"
)

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil))
}

func TestMergeSingletonIsIdentity(t *testing.T) {
	c := models.EvidenceCandidate{
		URL:        "https://example.com/transparency",
		Origin:     models.LayerLinkHarvest,
		Confidence: 0.72,
		Fields:     models.EvidenceFields{DashboardURL: "https://example.com/transparency"},
	}
	merged := Merge([]models.EvidenceCandidate{c})
	require.NotNil(t, merged)
	assert.Equal(t, c, *merged)
}

func TestMergeTwoCandidates(t *testing.T) {
	merged := Merge([]models.EvidenceCandidate{
		{Origin: models.LayerLinkHarvest, Confidence: 0.6},
		{Origin: models.LayerContentAnalysis, Confidence: 0.4},
	})
	require.NotNil(t, merged)
	// Weighted average (0.6*1 + 0.4*0.5) / 1.5 = 0.5333, boosted x1.10.
	assert.InDelta(t, 0.5867, merged.Confidence, 0.001)
	assert.Equal(t, models.LayerLinkHarvest, merged.Origin)
}

func TestMergeCapInvariant(t *testing.T) {
	two := Merge([]models.EvidenceCandidate{
		{Confidence: 0.95}, {Confidence: 0.95},
	})
	assert.LessOrEqual(t, two.Confidence, 0.90)

	three := Merge([]models.EvidenceCandidate{
		{Confidence: 0.95}, {Confidence: 0.95}, {Confidence: 0.95},
	})
	assert.LessOrEqual(t, three.Confidence, 0.95)
}

func TestMergeBackfillsMissingFields(t *testing.T) {
	merged := Merge([]models.EvidenceCandidate{
		{
			Confidence: 0.8,
			Fields:     models.EvidenceFields{DashboardURL: "https://a.example"},
		},
		{
			Confidence: 0.5,
			Fields: models.EvidenceFields{
				DashboardURL:        "https://b.example",
				HasProofOfReserves:  true,
				AttestationProvider: "bdo",
			},
		},
	})
	require.NotNil(t, merged)
	// Top-ranked fields win; gaps fill from lower ranks.
	assert.Equal(t, "https://a.example", merged.Fields.DashboardURL)
	assert.True(t, merged.Fields.HasProofOfReserves)
	assert.Equal(t, "bdo", merged.Fields.AttestationProvider)
}

func TestMergeSortsBeforeWeighting(t *testing.T) {
	ascending := Merge([]models.EvidenceCandidate{
		{Confidence: 0.3}, {Confidence: 0.9},
	})
	descending := Merge([]models.EvidenceCandidate{
		{Confidence: 0.9}, {Confidence: 0.3},
	})
	assert.InDelta(t, descending.Confidence, ascending.Confidence, 0.0001)
}
