package models

import "time"

// Tier1Result is the fast identity pass: resolved identity plus a heuristic
// preliminary score that needs no network-bound evidence gathering beyond
// identity resolution itself.
type Tier1Result struct {
	Identity         *AssetIdentity `json:"identity"`
	PreliminaryScore float64        `json:"preliminary_score"`
	PegStatus        string         `json:"peg_status"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// BasicTransparency is the Tier 2 shallow transparency check: dashboard
// existence and the proof-of-reserves flag only, no full discovery.
type BasicTransparency struct {
	DashboardURL       string `json:"dashboard_url,omitempty"`
	HasProofOfReserves bool   `json:"has_proof_of_reserves"`
	DataAvailable      bool   `json:"data_available"`
}

// Tier2Result carries the core factors computed from fetched price history.
type Tier2Result struct {
	PegStability      *RiskFactorScore   `json:"peg_stability"`
	BasicTransparency *BasicTransparency `json:"basic_transparency"`
	DepegEvents       []DepegEvent       `json:"depeg_events,omitempty"`
	Degraded          bool               `json:"degraded,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// Tier3Result is the comprehensive assessment with every factor computed.
type Tier3Result struct {
	Transparency *TransparencyRecord `json:"transparency,omitempty"`
	Audits       []AuditRecord       `json:"audits,omitempty"`
	Liquidity    *LiquidityProfile   `json:"liquidity,omitempty"`

	Factors      map[string]*RiskFactorScore `json:"factors"`
	OverallScore int                         `json:"overall_score"`
	RiskLevel    RiskLevel                   `json:"risk_level"`
	Warnings     []string                    `json:"warnings,omitempty"`
	GeneratedAt  time.Time                   `json:"generated_at"`
}

// TieredAssessment is the progressively filled assessment for one symbol.
// Tier2 and Tier3 are only meaningful once Tier1 exists; Tier2 may be absent
// on its own failure without blocking Tier3.
type TieredAssessment struct {
	Symbol   string       `json:"symbol"`
	Tier1    *Tier1Result `json:"tier1,omitempty"`
	Tier2    *Tier2Result `json:"tier2,omitempty"`
	Tier3    *Tier3Result `json:"tier3,omitempty"`
	Complete bool         `json:"complete"`
}

// Frame is one unit of the incrementally delivered assessment stream. Tier is
// 1, 2 or 3 for data frames and "error", "tier2-error" or "tier3-error" for
// failure frames.
type Frame struct {
	Tier      interface{} `json:"tier"`
	Data      interface{} `json:"data,omitempty"`
	Complete  bool        `json:"complete"`
	Timestamp time.Time   `json:"timestamp"`
}

// Envelope is the non-streaming response shape.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
