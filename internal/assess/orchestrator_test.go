package assess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/evidence"
	"github.com/pegwatch/internal/risk"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

type stubResolver struct {
	identity *models.AssetIdentity
	err      error
}

func (s *stubResolver) ResolveIdentity(ctx context.Context, ticker string) (*models.AssetIdentity, error) {
	return s.identity, s.err
}

type stubPrices struct {
	history []models.PricePoint
	err     error
}

func (s *stubPrices) PriceHistory(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	return s.history, s.err
}

type stubDiscovery struct {
	record *models.TransparencyRecord
}

func (s *stubDiscovery) Discover(ctx context.Context, symbol string, homepages []string) *models.TransparencyRecord {
	return s.record
}

type stubAudits struct {
	records []models.AuditRecord
}

func (s *stubAudits) Find(ctx context.Context, symbol string, homepages, repoURLs []string) []models.AuditRecord {
	return s.records
}

type stubLiquidity struct {
	profile *models.LiquidityProfile
	err     error
}

func (s *stubLiquidity) Profile(ctx context.Context, symbol string) (*models.LiquidityProfile, error) {
	return s.profile, s.err
}

type stubProber struct{ reachable bool }

func (s *stubProber) Probe(ctx context.Context, url string) bool { return s.reachable }

type stubCurated struct {
	dashboard *curated.Dashboard
	oracle    *curated.Oracle
	audits    *curated.AuditProfile
}

func (s *stubCurated) Dashboard(ctx context.Context, symbol string) (*curated.Dashboard, bool) {
	return s.dashboard, s.dashboard != nil
}

func (s *stubCurated) Oracle(ctx context.Context, symbol string) (*curated.Oracle, bool) {
	return s.oracle, s.oracle != nil
}

func (s *stubCurated) AuditProfile(ctx context.Context, symbol string) (*curated.AuditProfile, bool) {
	return s.audits, s.audits != nil
}

type recordedEvent struct {
	symbol string
	tier   int
}

type stubPublisher struct {
	tiers     []recordedEvent
	completed []string
}

func (s *stubPublisher) PublishTier(symbol string, tier int, payload interface{}) {
	s.tiers = append(s.tiers, recordedEvent{symbol, tier})
}

func (s *stubPublisher) PublishCompleted(symbol string, payload interface{}) {
	s.completed = append(s.completed, symbol)
}

type fixture struct {
	store     *evidence.MemoryStore
	resolver  *stubResolver
	prices    *stubPrices
	discovery *stubDiscovery
	audits    *stubAudits
	liquidity *stubLiquidity
	curated   *stubCurated
	publisher *stubPublisher
}

func healthyIdentity() *models.AssetIdentity {
	return &models.AssetIdentity{
		ID:           "usd-coin",
		Symbol:       "USDC",
		Name:         "USD Coin",
		CurrentPrice: 1.0005,
		MarketCapUSD: 30e9,
		PeggingType:  models.PegFiatBacked,
		Links: models.OfficialLinks{
			Homepages:   []string{"https://www.circle.com"},
			GithubRepos: []string{"https://github.com/circlefin/stablecoin-evm"},
		},
	}
}

func newFixture() *fixture {
	return &fixture{
		store:    evidence.NewMemoryStore(),
		resolver: &stubResolver{identity: healthyIdentity()},
		prices: &stubPrices{history: []models.PricePoint{
			{TimestampMs: 0, Price: 1.0002, DeviationPercent: 0.02},
			{TimestampMs: 3600000, Price: 0.9996, DeviationPercent: 0.04},
		}},
		discovery: &stubDiscovery{record: &models.TransparencyRecord{
			Symbol:              "USDC",
			DashboardURL:        "https://www.circle.com/en/transparency",
			HasProofOfReserves:  true,
			AttestationProvider: "Deloitte",
			UpdateFrequency:     "daily",
			Confidence:          0.95,
			Sources:             []models.OriginLayer{models.LayerCurated},
		}},
		audits: &stubAudits{records: []models.AuditRecord{
			{Firm: "Halborn", Date: time.Now().Add(-30 * 24 * time.Hour), Source: "docsite"},
		}},
		liquidity: &stubLiquidity{profile: &models.LiquidityProfile{
			TotalUSD:    25e9,
			ChainShares: map[string]float64{"ethereum": 0.5, "solana": 0.3, "base": 0.2},
			ChainCount:  3,
		}},
		curated: &stubCurated{
			oracle: &curated.Oracle{Provider: "Chainlink", Decentralization: 80, Reputation: 90},
		},
		publisher: &stubPublisher{},
	}
}

func (f *fixture) orchestrator() *Orchestrator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := &config.AssessmentConfig{
		Tier1TTL:     10 * time.Minute,
		Tier2TTL:     30 * time.Minute,
		Tier3TTL:     6 * time.Hour,
		Tier1Timeout: 5 * time.Second,
		Tier2Timeout: 5 * time.Second,
		Tier3Timeout: 5 * time.Second,
	}
	return NewOrchestrator(cfg, f.store, f.resolver, f.prices, f.discovery,
		f.audits, f.liquidity, &stubProber{}, f.curated, f.publisher, nil, log)
}

func collectFrames(t *testing.T, frames <-chan models.Frame) []models.Frame {
	t.Helper()
	var out []models.Frame
	deadline := time.After(10 * time.Second)
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return out
			}
			out = append(out, frame)
		case <-deadline:
			t.Fatal("frame stream did not close")
		}
	}
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture()
	frames := collectFrames(t, f.orchestrator().Run("usdc"))

	require.Len(t, frames, 3)
	assert.Equal(t, 1, frames[0].Tier)
	assert.Equal(t, 2, frames[1].Tier)
	assert.Equal(t, 3, frames[2].Tier)
	assert.False(t, frames[0].Complete)
	assert.False(t, frames[1].Complete)
	assert.True(t, frames[2].Complete)

	t1, ok := frames[0].Data.(*models.Tier1Result)
	require.True(t, ok)
	assert.Equal(t, "USDC", t1.Identity.Symbol)
	assert.Equal(t, "stable", t1.PegStatus)
	// 50 base + 20 mcap + 10 fiat + 10 tight price.
	assert.Equal(t, 90.0, t1.PreliminaryScore)

	t2, ok := frames[1].Data.(*models.Tier2Result)
	require.True(t, ok)
	require.NotNil(t, t2.PegStability)
	assert.Equal(t, 100.0, t2.PegStability.Score)

	t3, ok := frames[2].Data.(*models.Tier3Result)
	require.True(t, ok)
	assert.Len(t, t3.Factors, 5)
	assert.Equal(t, 100.0, t3.Factors[risk.FactorPegStability].Score)
	assert.Equal(t, 85.0, t3.Factors[risk.FactorOracle].Score)
	assert.NotEmpty(t, t3.RiskLevel)
	assert.Empty(t, t3.Warnings)

	// Events fired in tier order, lowercase input normalized.
	require.Len(t, f.publisher.tiers, 3)
	assert.Equal(t, recordedEvent{"USDC", 1}, f.publisher.tiers[0])
	assert.Equal(t, []string{"USDC"}, f.publisher.completed)
}

func TestRunUnknownTickerIsTerminal(t *testing.T) {
	f := newFixture()
	f.resolver.err = models.NewError(models.ErrNotFound, "no such coin", nil)

	frames := collectFrames(t, f.orchestrator().Run("NOPE"))
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0].Tier)
	assert.True(t, frames[0].Complete)

	payload, ok := frames[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(models.ErrNotFound), payload["code"])
	assert.Empty(t, f.publisher.tiers)
}

func TestRunTier2FailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.prices.err = errors.New("upstream rate limited")

	frames := collectFrames(t, f.orchestrator().Run("USDC"))
	require.Len(t, frames, 3)
	assert.Equal(t, 1, frames[0].Tier)
	assert.Equal(t, "tier2-error", frames[1].Tier)
	assert.False(t, frames[1].Complete)
	assert.Equal(t, 3, frames[2].Tier)
	assert.True(t, frames[2].Complete)

	t3 := frames[2].Data.(*models.Tier3Result)
	peg := t3.Factors[risk.FactorPegStability]
	require.NotNil(t, peg)
	assert.Equal(t, 0.0, peg.Score)
	assert.True(t, peg.Degraded)
	assert.Contains(t, t3.Warnings[0], "peg stability")
}

func TestRunLiquidityFailureDegrades(t *testing.T) {
	f := newFixture()
	f.liquidity.profile = nil
	f.liquidity.err = models.NewError(models.ErrProvider, "no liquidity data for USDC", nil)

	frames := collectFrames(t, f.orchestrator().Run("USDC"))
	require.Len(t, frames, 3)

	t3 := frames[2].Data.(*models.Tier3Result)
	liq := t3.Factors[risk.FactorLiquidity]
	assert.Equal(t, 50.0, liq.Score)
	assert.False(t, liq.DataAvailable)

	var found bool
	for _, w := range t3.Warnings {
		if w == "liquidity data unavailable; neutral default applied" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunCachesTiers(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	collectFrames(t, o.Run("USDC"))

	ctx := context.Background()
	for tier := 1; tier <= 3; tier++ {
		has, err := f.store.Has(ctx, evidence.TierKey("USDC", tier))
		require.NoError(t, err)
		assert.True(t, has, "tier %d should be cached", tier)
	}

	// A second run serves from cache and never consults the resolver again.
	f.resolver.err = errors.New("provider down")
	f.resolver.identity = nil
	frames := collectFrames(t, o.Run("USDC"))
	require.Len(t, frames, 3)
	assert.Equal(t, 1, frames[0].Tier)
}

func TestBasicTransparencyProbeFallback(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()
	o.prober = &stubProber{reachable: true}

	bt := o.basicTransparency(context.Background(), "USDC", healthyIdentity())
	require.NotNil(t, bt)
	assert.True(t, bt.DataAvailable)
	assert.Equal(t, "https://www.circle.com/transparency", bt.DashboardURL)
}

func TestBasicTransparencyNothingFound(t *testing.T) {
	f := newFixture()
	o := f.orchestrator()

	bt := o.basicTransparency(context.Background(), "USDC", healthyIdentity())
	assert.False(t, bt.DataAvailable)
	assert.Empty(t, bt.DashboardURL)
}

func TestPegStatus(t *testing.T) {
	assert.Equal(t, "stable", pegStatus(1.004))
	assert.Equal(t, "minor deviation", pegStatus(1.03))
	assert.Equal(t, "depegged", pegStatus(0.90))
}
