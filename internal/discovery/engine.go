package discovery

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

// CuratedLookup is the slice of the curated registry the engine needs.
type CuratedLookup interface {
	Dashboard(ctx context.Context, symbol string) (*curated.Dashboard, bool)
}

// Engine runs the layered transparency discovery process: ordered strategies
// from cheapest to most expensive, early-stopping on per-strategy confidence
// thresholds, combining accumulated partial results when no single strategy
// is convincing on its own.
type Engine struct {
	cfg     *config.DiscoveryConfig
	curated CuratedLookup
	logger  *logrus.Entry

	harvester  *linkHarvester
	analyzer   *contentAnalyzer
	enumerator *subdomainEnumerator
	crawler    *crawler
}

// NewEngine wires the four strategies over a shared fetcher and parser.
func NewEngine(cfg *config.DiscoveryConfig, fetcher *providers.WebFetcher, parser Parser, cur CuratedLookup, log *logrus.Logger) *Engine {
	logger := log.WithField("component", "discovery")
	analyzer := &contentAnalyzer{
		fetcher:        fetcher,
		parser:         parser,
		maxSites:       cfg.MaxSites,
		minInteresting: cfg.MinInteresting,
		logger:         logger,
	}
	return &Engine{
		cfg:     cfg,
		curated: cur,
		logger:  logger,
		harvester: &linkHarvester{
			fetcher:  fetcher,
			parser:   parser,
			maxSites: cfg.MaxSites,
			logger:   logger,
		},
		analyzer: analyzer,
		enumerator: &subdomainEnumerator{
			fetcher: fetcher,
			content: analyzer,
			logger:  logger,
		},
		crawler: &crawler{
			fetcher:  fetcher,
			parser:   parser,
			content:  analyzer,
			maxPages: cfg.CrawlMaxPages,
			logger:   logger,
		},
	}
}

// Discover produces the best-known transparency record for a symbol, or nil
// when no credible evidence exists. The curated mapping is consulted before
// any live strategy runs; a curated hit is still live-analyzed so fresher
// page facts win over static ones.
func (e *Engine) Discover(ctx context.Context, symbol string, homepages []string) *models.TransparencyRecord {
	if d, ok := e.curated.Dashboard(ctx, symbol); ok {
		return e.fromCurated(ctx, symbol, d)
	}

	if len(homepages) == 0 {
		e.logger.WithField("symbol", symbol).Debug("No homepages to search")
		return nil
	}

	var accumulated []models.EvidenceCandidate

	type strategy struct {
		threshold float64
		run       func() *models.EvidenceCandidate
	}
	strategies := []strategy{
		{e.cfg.LinkHarvestThreshold, func() *models.EvidenceCandidate {
			return e.harvester.Run(ctx, homepages)
		}},
		{e.cfg.ContentAnalysisThreshold, func() *models.EvidenceCandidate {
			return e.analyzer.Run(ctx, homepages)
		}},
		{e.cfg.SubdomainEnumThreshold, func() *models.EvidenceCandidate {
			return e.enumerator.Run(ctx, homepages[0])
		}},
		{e.cfg.CrawlThreshold, func() *models.EvidenceCandidate {
			return e.crawler.Run(ctx, homepages[0])
		}},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}
		c := s.run()
		if c == nil {
			continue
		}
		if c.Confidence >= s.threshold {
			e.logger.WithFields(logrus.Fields{
				"symbol":     symbol,
				"layer":      c.Origin,
				"confidence": c.Confidence,
			}).Info("Discovery early stop")
			return models.RecordFromCandidate(symbol, c, []models.OriginLayer{c.Origin})
		}
		accumulated = append(accumulated, *c)

		if len(accumulated) >= 2 {
			if merged := Merge(accumulated); merged.Confidence >= e.cfg.CombineThreshold {
				e.logger.WithFields(logrus.Fields{
					"symbol":     symbol,
					"layers":     len(accumulated),
					"confidence": merged.Confidence,
				}).Info("Discovery combined stop")
				return models.RecordFromCandidate(symbol, merged, Origins(accumulated))
			}
		}
	}

	merged := Merge(accumulated)
	if merged == nil || merged.Confidence < e.cfg.MinInteresting {
		e.logger.WithField("symbol", symbol).Info("Discovery found nothing credible")
		return nil
	}
	return models.RecordFromCandidate(symbol, merged, Origins(accumulated))
}

// fromCurated live-analyzes the known dashboard URL and falls back to the
// static curated values only when the page yields no recognizable signal.
func (e *Engine) fromCurated(ctx context.Context, symbol string, d *curated.Dashboard) *models.TransparencyRecord {
	static := &models.TransparencyRecord{
		Symbol:              symbol,
		DashboardURL:        d.URL,
		HasProofOfReserves:  d.HasProofOfReserves,
		AttestationProvider: d.AttestationProvider,
		UpdateFrequency:     d.UpdateFrequency,
		VerificationStatus:  d.VerificationStatus,
		Confidence:          0.95,
		Sources:             []models.OriginLayer{models.LayerCurated},
	}

	live := e.analyzer.AnalyzePage(ctx, d.URL)
	if live == nil {
		return static
	}

	record := models.RecordFromCandidate(symbol, live,
		[]models.OriginLayer{models.LayerCurated, models.LayerContentAnalysis})
	record.DashboardURL = d.URL
	record.Confidence = 0.95
	if record.AttestationProvider == "" {
		record.AttestationProvider = d.AttestationProvider
	}
	if record.UpdateFrequency == "" {
		record.UpdateFrequency = d.UpdateFrequency
	}
	if record.VerificationStatus == "" {
		record.VerificationStatus = d.VerificationStatus
	}
	if d.HasProofOfReserves {
		record.HasProofOfReserves = true
	}
	return record
}
