package models

// OriginLayer identifies the discovery strategy that produced a piece of
// evidence.
type OriginLayer string

const (
	LayerLinkHarvest      OriginLayer = "linkHarvest"
	LayerContentAnalysis  OriginLayer = "contentAnalysis"
	LayerSubdomainEnum    OriginLayer = "subdomainEnum"
	LayerIntelligentCrawl OriginLayer = "intelligentCrawl"
	LayerCurated          OriginLayer = "curated"
)

// EvidenceFields are the facts a discovery strategy managed to extract from a
// page. Empty string / false means "not observed", not "observed absent".
type EvidenceFields struct {
	DashboardURL        string `json:"dashboard_url,omitempty"`
	HasProofOfReserves  bool   `json:"has_proof_of_reserves,omitempty"`
	AttestationProvider string `json:"attestation_provider,omitempty"`
	UpdateFrequency     string `json:"update_frequency,omitempty"`
	LastUpdateDate      string `json:"last_update_date,omitempty"`
	VerificationStatus  string `json:"verification_status,omitempty"`
}

// EvidenceCandidate is a single strategy's confidence-scored partial result.
type EvidenceCandidate struct {
	URL        string         `json:"url"`
	Origin     OriginLayer    `json:"origin_layer"`
	Confidence float64        `json:"confidence"`
	Fields     EvidenceFields `json:"extracted_fields"`
}

// TransparencyRecord is the finalized best-known transparency evidence for a
// symbol, merged from one or more candidates or taken from the curated table.
// HasProofOfReserves is never true without at least one supporting candidate
// or a curated mapping entry.
type TransparencyRecord struct {
	Symbol              string        `json:"symbol"`
	DashboardURL        string        `json:"dashboard_url,omitempty"`
	HasProofOfReserves  bool          `json:"has_proof_of_reserves"`
	AttestationProvider string        `json:"attestation_provider,omitempty"`
	UpdateFrequency     string        `json:"update_frequency,omitempty"`
	LastUpdateDate      string        `json:"last_update_date,omitempty"`
	VerificationStatus  string        `json:"verification_status,omitempty"`
	Confidence          float64       `json:"confidence"`
	Sources             []OriginLayer `json:"sources"`
}

// RecordFromCandidate builds a TransparencyRecord out of a merged candidate.
func RecordFromCandidate(symbol string, c *EvidenceCandidate, sources []OriginLayer) *TransparencyRecord {
	if c == nil {
		return nil
	}
	dashboard := c.Fields.DashboardURL
	if dashboard == "" {
		dashboard = c.URL
	}
	return &TransparencyRecord{
		Symbol:              symbol,
		DashboardURL:        dashboard,
		HasProofOfReserves:  c.Fields.HasProofOfReserves,
		AttestationProvider: c.Fields.AttestationProvider,
		UpdateFrequency:     c.Fields.UpdateFrequency,
		LastUpdateDate:      c.Fields.LastUpdateDate,
		VerificationStatus:  c.Fields.VerificationStatus,
		Confidence:          c.Confidence,
		Sources:             sources,
	}
}
