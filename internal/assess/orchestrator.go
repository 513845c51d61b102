package assess

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/evidence"
	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/internal/risk"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

// historyDays is the price window feeding peg-stability scoring.
const historyDays = 90

// IdentityResolver resolves a ticker to an asset identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, ticker string) (*models.AssetIdentity, error)
}

// PriceSource fetches a peg-deviation-annotated price history.
type PriceSource interface {
	PriceHistory(ctx context.Context, coinID string, days int) ([]models.PricePoint, error)
}

// TransparencyFinder runs full transparency discovery.
type TransparencyFinder interface {
	Discover(ctx context.Context, symbol string, homepages []string) *models.TransparencyRecord
}

// AuditFinder locates third-party audit evidence.
type AuditFinder interface {
	Find(ctx context.Context, symbol string, homepages, repoURLs []string) []models.AuditRecord
}

// LiquiditySource builds a liquidity distribution profile.
type LiquiditySource interface {
	Profile(ctx context.Context, symbol string) (*models.LiquidityProfile, error)
}

// Prober existence-checks a URL cheaply.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// CuratedLookup is the slice of the curated registry the orchestrator needs.
type CuratedLookup interface {
	Dashboard(ctx context.Context, symbol string) (*curated.Dashboard, bool)
	Oracle(ctx context.Context, symbol string) (*curated.Oracle, bool)
	AuditProfile(ctx context.Context, symbol string) (*curated.AuditProfile, bool)
}

// EventPublisher emits tier lifecycle events. May be nil.
type EventPublisher interface {
	PublishTier(symbol string, tier int, payload interface{})
	PublishCompleted(symbol string, payload interface{})
}

// ScoreRecorder persists finished scores. May be nil.
type ScoreRecorder interface {
	Record(symbol string, overall int, level models.RiskLevel, factors map[string]*models.RiskFactorScore)
}

// Orchestrator drives the INIT, TIER1, TIER2, TIER3, DONE pipeline. Tiers run
// strictly in order; inside Tier 3 the independent sub-computations fan out
// concurrently with wait-for-all, tolerate-individual-failure semantics.
type Orchestrator struct {
	cfg       *config.AssessmentConfig
	store     evidence.Store
	resolver  IdentityResolver
	prices    PriceSource
	discovery TransparencyFinder
	audits    AuditFinder
	liquidity LiquiditySource
	prober    Prober
	curated   CuratedLookup
	publisher EventPublisher
	recorder  ScoreRecorder
	logger    *logrus.Entry
}

// NewOrchestrator wires the pipeline. publisher and recorder may be nil when
// the respective backends are disabled.
func NewOrchestrator(
	cfg *config.AssessmentConfig,
	store evidence.Store,
	resolver IdentityResolver,
	prices PriceSource,
	discoveryEngine TransparencyFinder,
	auditFinder AuditFinder,
	liquiditySource LiquiditySource,
	prober Prober,
	cur CuratedLookup,
	publisher EventPublisher,
	recorder ScoreRecorder,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		resolver:  resolver,
		prices:    prices,
		discovery: discoveryEngine,
		audits:    auditFinder,
		liquidity: liquiditySource,
		prober:    prober,
		curated:   cur,
		publisher: publisher,
		recorder:  recorder,
		logger:    log.WithField("component", "orchestrator"),
	}
}

// Run starts an assessment and returns the frame stream. Computation is
// detached from the caller's context: a consumer disconnect never cancels
// the producer, because finished tiers are cache-worthy for future callers.
func (o *Orchestrator) Run(ticker string) <-chan models.Frame {
	frames := make(chan models.Frame, 8)
	go o.run(strings.ToUpper(ticker), frames)
	return frames
}

func (o *Orchestrator) run(symbol string, frames chan<- models.Frame) {
	defer close(frames)
	ctx := context.Background()
	started := time.Now()

	t1, err := o.tier1(ctx, symbol)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", symbol).Warn("Assessment aborted")
		frames <- errorFrame("error", err)
		return
	}
	frames <- dataFrame(1, t1, false)
	o.publishTier(symbol, 1, t1)

	t2, err := o.tier2(ctx, symbol, t1)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", symbol).Warn("Tier 2 failed, continuing")
		frames <- errorFrame("tier2-error", err)
	} else {
		frames <- dataFrame(2, t2, false)
		o.publishTier(symbol, 2, t2)
	}

	t3 := o.tier3(ctx, symbol, t1, t2)
	frames <- dataFrame(3, t3, true)
	o.publishTier(symbol, 3, t3)

	if o.publisher != nil {
		o.publisher.PublishCompleted(symbol, &models.TieredAssessment{
			Symbol: symbol, Tier1: t1, Tier2: t2, Tier3: t3, Complete: true,
		})
	}
	if o.recorder != nil {
		o.recorder.Record(symbol, t3.OverallScore, t3.RiskLevel, t3.Factors)
	}

	o.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"score":    t3.OverallScore,
		"level":    t3.RiskLevel,
		"duration": time.Since(started).String(),
	}).Info("Assessment complete")
}

// tier1 resolves identity and computes the preliminary score. An
// unresolvable ticker is terminal.
func (o *Orchestrator) tier1(ctx context.Context, symbol string) (*models.Tier1Result, error) {
	var cached models.Tier1Result
	if hit, err := o.store.Get(ctx, evidence.TierKey(symbol, 1), &cached); err == nil && hit {
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Tier1Timeout)
	defer cancel()

	identity, err := o.resolver.ResolveIdentity(ctx, symbol)
	if err != nil {
		if models.IsNotFound(err) || providers.IsNotFound(err) {
			return nil, models.NewError(models.ErrNotFound, "unknown ticker "+symbol, err)
		}
		return nil, models.NewError(models.ErrProvider, "identity resolution failed", err)
	}

	t1 := &models.Tier1Result{
		Identity:         identity,
		PreliminaryScore: preliminaryScore(identity),
		PegStatus:        pegStatus(identity.CurrentPrice),
		GeneratedAt:      time.Now().UTC(),
	}
	if err := o.store.Set(ctx, evidence.TierKey(symbol, 1), t1, o.cfg.Tier1TTL, 1); err != nil {
		o.logger.WithError(err).Warn("Failed to cache tier 1")
	}
	return t1, nil
}

// tier2 computes peg stability from real price history plus the shallow
// transparency check. Failure is non-fatal to the pipeline.
func (o *Orchestrator) tier2(ctx context.Context, symbol string, t1 *models.Tier1Result) (*models.Tier2Result, error) {
	var cached models.Tier2Result
	if hit, err := o.store.Get(ctx, evidence.TierKey(symbol, 2), &cached); err == nil && hit {
		return &cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Tier2Timeout)
	defer cancel()

	history, err := o.prices.PriceHistory(ctx, t1.Identity.ID, historyDays)
	if err != nil {
		return nil, models.NewError(models.ErrPartialTier, "price history unavailable", err)
	}

	t2 := &models.Tier2Result{
		PegStability:      risk.PegStability(history),
		DepegEvents:       risk.DepegEvents(history),
		BasicTransparency: o.basicTransparency(ctx, symbol, t1.Identity),
		GeneratedAt:       time.Now().UTC(),
	}
	if err := o.store.Set(ctx, evidence.TierKey(symbol, 2), t2, o.cfg.Tier2TTL, 2); err != nil {
		o.logger.WithError(err).Warn("Failed to cache tier 2")
	}
	return t2, nil
}

// basicTransparency checks dashboard existence only: curated entry first,
// else one cheap probe of the conventional transparency path. Full discovery
// waits for Tier 3.
func (o *Orchestrator) basicTransparency(ctx context.Context, symbol string, identity *models.AssetIdentity) *models.BasicTransparency {
	if d, ok := o.curated.Dashboard(ctx, symbol); ok {
		return &models.BasicTransparency{
			DashboardURL:       d.URL,
			HasProofOfReserves: d.HasProofOfReserves,
			DataAvailable:      true,
		}
	}
	for _, homepage := range identity.Links.Homepages {
		candidate := strings.TrimRight(homepage, "/") + "/transparency"
		if o.prober.Probe(ctx, candidate) {
			return &models.BasicTransparency{
				DashboardURL:  candidate,
				DataAvailable: true,
			}
		}
		break
	}
	return &models.BasicTransparency{DataAvailable: false}
}

// tier3 runs the expensive sub-computations concurrently and assembles the
// complete weighted assessment. Each sub-failure degrades to its documented
// default instead of aborting the tier.
func (o *Orchestrator) tier3(ctx context.Context, symbol string, t1 *models.Tier1Result, t2 *models.Tier2Result) *models.Tier3Result {
	var cached models.Tier3Result
	if hit, err := o.store.Get(ctx, evidence.TierKey(symbol, 3), &cached); err == nil && hit {
		return &cached
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Tier3Timeout)
	defer cancel()

	identity := t1.Identity
	var (
		wg           sync.WaitGroup
		transparency *models.TransparencyRecord
		auditRecords []models.AuditRecord
		profile      *models.LiquidityProfile
		liquidityErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		transparency = o.discovery.Discover(ctx, symbol, identity.Links.Homepages)
	}()
	go func() {
		defer wg.Done()
		auditRecords = o.audits.Find(ctx, symbol, identity.Links.Homepages, identity.Links.GithubRepos)
	}()
	go func() {
		defer wg.Done()
		profile, liquidityErr = o.liquidity.Profile(ctx, symbol)
	}()
	wg.Wait()

	factors := map[string]*models.RiskFactorScore{
		risk.FactorTransparency: risk.Transparency(transparency),
		risk.FactorLiquidity:    risk.Liquidity(profile),
	}

	oracleCfg, _ := o.curated.Oracle(ctx, symbol)
	factors[risk.FactorOracle] = risk.OracleSetup(oracleCfg, identity.PeggingType)

	auditProfile, _ := o.curated.AuditProfile(ctx, symbol)
	factors[risk.FactorAudit] = risk.AuditStatus(auditProfile, auditRecords)

	var warnings []string
	if t2 != nil && t2.PegStability != nil {
		factors[risk.FactorPegStability] = t2.PegStability
	} else {
		factors[risk.FactorPegStability] = &models.RiskFactorScore{
			Score:         0,
			DataAvailable: false,
			Degraded:      true,
			Details:       map[string]interface{}{"reason": "price history unavailable"},
		}
		warnings = append(warnings, "peg stability could not be computed; score assumes worst case")
	}
	if liquidityErr != nil {
		warnings = append(warnings, "liquidity data unavailable; neutral default applied")
	}
	if transparency == nil {
		warnings = append(warnings, "no transparency evidence found")
	}
	if auditProfile == nil && len(auditRecords) == 0 {
		warnings = append(warnings, "no recent audit history found")
	}

	overall := risk.Overall(factors)
	t3 := &models.Tier3Result{
		Transparency: transparency,
		Audits:       auditRecords,
		Liquidity:    profile,
		Factors:      factors,
		OverallScore: overall,
		RiskLevel:    models.LevelForScore(float64(overall)),
		Warnings:     warnings,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := o.store.Set(ctx, evidence.TierKey(symbol, 3), t3, o.cfg.Tier3TTL, 3); err != nil {
		o.logger.WithError(err).Warn("Failed to cache tier 3")
	}
	return t3
}

func (o *Orchestrator) publishTier(symbol string, tier int, payload interface{}) {
	if o.publisher != nil {
		o.publisher.PublishTier(symbol, tier, payload)
	}
}

// preliminaryScore is the Tier 1 heuristic: market standing and pegging
// mechanism only, no evidence gathering.
func preliminaryScore(identity *models.AssetIdentity) float64 {
	score := 50.0

	switch {
	case identity.MarketCapUSD > 10e9:
		score += 20
	case identity.MarketCapUSD > 1e9:
		score += 15
	case identity.MarketCapUSD > 100e6:
		score += 10
	case identity.MarketCapUSD > 10e6:
		score += 5
	}

	switch identity.PeggingType {
	case models.PegFiatBacked:
		score += 10
	case models.PegCryptoCollateral, models.PegCommodityBacked:
		score += 5
	case models.PegAlgorithmic:
		score -= 10
	}

	dev := math.Abs(identity.CurrentPrice - 1.0)
	switch {
	case dev < 0.01:
		score += 10
	case dev > 0.05:
		score -= 20
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func pegStatus(price float64) string {
	dev := math.Abs(price - 1.0)
	switch {
	case dev < 0.01:
		return "stable"
	case dev < 0.05:
		return "minor deviation"
	default:
		return "depegged"
	}
}

func dataFrame(tier int, data interface{}, complete bool) models.Frame {
	return models.Frame{Tier: tier, Data: data, Complete: complete, Timestamp: time.Now().UTC()}
}

func errorFrame(tier string, err error) models.Frame {
	return models.Frame{
		Tier:      tier,
		Data:      map[string]interface{}{"code": string(models.CodeOf(err)), "message": err.Error()},
		Complete:  tier == "error",
		Timestamp: time.Now().UTC(),
	}
}
