package curated

// Dashboard is a vetted transparency dashboard entry for a symbol.
type Dashboard struct {
	URL                 string `yaml:"url" json:"url"`
	HasProofOfReserves  bool   `yaml:"has_proof_of_reserves" json:"has_proof_of_reserves"`
	AttestationProvider string `yaml:"attestation_provider" json:"attestation_provider,omitempty"`
	UpdateFrequency     string `yaml:"update_frequency" json:"update_frequency,omitempty"`
	VerificationStatus  string `yaml:"verification_status" json:"verification_status,omitempty"`
}

// AuditSource is a vetted audit listing page for a symbol.
type AuditSource struct {
	URL  string `yaml:"url" json:"url"`
	Firm string `yaml:"firm" json:"firm,omitempty"`
}

// Oracle describes a known oracle configuration for a symbol. Scores are
// 0 to 100, higher meaning better decentralization or reputation.
type Oracle struct {
	Provider         string `yaml:"provider" json:"provider"`
	Decentralization int    `yaml:"decentralization" json:"decentralization"`
	Reputation       int    `yaml:"reputation" json:"reputation"`
}

// AuditProfile is the well-audited-issuer entry for a symbol.
type AuditProfile struct {
	Score int      `yaml:"score" json:"score"`
	Firms []string `yaml:"firms" json:"firms"`
}

// TokenAddress pins a symbol's contract on one network for liquidity lookups.
type TokenAddress struct {
	Network string `yaml:"network" json:"network"`
	Address string `yaml:"address" json:"address"`
}

// Entry is everything curated about one symbol. Any field may be absent.
type Entry struct {
	Dashboard     *Dashboard     `yaml:"dashboard" json:"dashboard,omitempty"`
	AuditSources  []AuditSource  `yaml:"audit_sources" json:"audit_sources,omitempty"`
	Oracle        *Oracle        `yaml:"oracle" json:"oracle,omitempty"`
	AuditProfile  *AuditProfile  `yaml:"audit_profile" json:"audit_profile,omitempty"`
	TokenAddress  *TokenAddress  `yaml:"token_address" json:"token_address,omitempty"`
	PathOverrides []string       `yaml:"path_overrides" json:"path_overrides,omitempty"`
}
