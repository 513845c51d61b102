package models

import "time"

// PeggingType classifies the mechanism an asset uses to hold its peg.
type PeggingType string

const (
	PegFiatBacked        PeggingType = "fiat-backed"
	PegCryptoCollateral  PeggingType = "crypto-collateralized"
	PegCommodityBacked   PeggingType = "commodity-backed"
	PegAlgorithmic       PeggingType = "algorithmic"
	PegUnknown           PeggingType = "unknown"
)

// OfficialLinks holds the official web presence of an asset as reported by
// the identity provider.
type OfficialLinks struct {
	Homepages   []string `json:"homepages"`
	GithubRepos []string `json:"github_repos"`
}

// AssetIdentity is the resolved identity of a stablecoin. It is created once
// per assessment by identity resolution and never mutated afterwards.
type AssetIdentity struct {
	ID           string        `json:"id"`
	Symbol       string        `json:"symbol"`
	Name         string        `json:"name"`
	CurrentPrice float64       `json:"current_price"`
	MarketCapUSD float64       `json:"market_cap_usd"`
	PeggingType  PeggingType   `json:"pegging_type"`
	Links        OfficialLinks `json:"official_links"`
	Description  string        `json:"description,omitempty"`
	ResolvedAt   time.Time     `json:"resolved_at"`
}

// PricePoint is one observation of a time-ascending price history sequence.
type PricePoint struct {
	TimestampMs      int64   `json:"timestamp_ms"`
	Price            float64 `json:"price"`
	DeviationPercent float64 `json:"deviation_percent_from_peg"`
}

// DepegEvent records an excursion beyond 5% from the peg and, when the price
// later returned to within 1%, how long recovery took.
type DepegEvent struct {
	TimestampMs      int64    `json:"timestamp_ms"`
	Price            float64  `json:"price"`
	DeviationPercent float64  `json:"deviation_percent"`
	RecoveryHours    *float64 `json:"recovery_hours,omitempty"`
	Recovered        bool     `json:"recovered"`
}

// LiquidityProfile summarizes how an asset's on-chain value is distributed
// across chains and decentralized exchanges.
type LiquidityProfile struct {
	TotalUSD              float64            `json:"total_usd"`
	ChainShares           map[string]float64 `json:"chain_shares"`
	DexShares             map[string]float64 `json:"dex_shares"`
	ChainCount            int                `json:"chain_count"`
	TopChain              string             `json:"top_chain"`
	TopDex                string             `json:"top_dex"`
	StableStablePercent   float64            `json:"stable_stable_percent"`
	VolatileStablePercent float64            `json:"volatile_stable_percent"`
}
