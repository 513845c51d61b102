package discovery

import (
	"sort"

	"github.com/pegwatch/pkg/models"
)

// Merge combines candidates from multiple strategies into one. A singleton
// merges to itself. For more, candidates are ranked by descending confidence
// and weighted 1/(rank+1); the weighted average is then boosted for
// corroboration, 1.10x for two sources capped at 0.90 and 1.15x for three or
// more capped at 0.95. Missing fields are back-filled from lower-ranked
// candidates in order.
func Merge(candidates []models.EvidenceCandidate) *models.EvidenceCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		c := candidates[0]
		return &c
	}

	ranked := make([]models.EvidenceCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	var weightedSum, weightTotal float64
	for rank, c := range ranked {
		w := 1.0 / float64(rank+1)
		weightedSum += c.Confidence * w
		weightTotal += w
	}
	confidence := weightedSum / weightTotal

	boost, ceiling := 1.10, 0.90
	if len(ranked) >= 3 {
		boost, ceiling = 1.15, 0.95
	}
	confidence *= boost
	if confidence > ceiling {
		confidence = ceiling
	}

	merged := ranked[0]
	merged.Confidence = confidence
	for _, c := range ranked[1:] {
		backfill(&merged.Fields, c.Fields)
	}
	return &merged
}

// Origins lists each candidate's layer in input order.
func Origins(candidates []models.EvidenceCandidate) []models.OriginLayer {
	out := make([]models.OriginLayer, len(candidates))
	for i, c := range candidates {
		out[i] = c.Origin
	}
	return out
}

func backfill(dst *models.EvidenceFields, src models.EvidenceFields) {
	if dst.DashboardURL == "" {
		dst.DashboardURL = src.DashboardURL
	}
	if !dst.HasProofOfReserves {
		dst.HasProofOfReserves = src.HasProofOfReserves
	}
	if dst.AttestationProvider == "" {
		dst.AttestationProvider = src.AttestationProvider
	}
	if dst.UpdateFrequency == "" {
		dst.UpdateFrequency = src.UpdateFrequency
	}
	if dst.LastUpdateDate == "" {
		dst.LastUpdateDate = src.LastUpdateDate
	}
	if dst.VerificationStatus == "" {
		dst.VerificationStatus = src.VerificationStatus
	}
}
