package discovery

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// Keyword sets for the individual content heuristics.
var (
	metaKeywords   = []string{"transparency", "reserves", "attestation", "proof of reserves", "backed"}
	scriptKeywords = []string{"reserve", "attestation", "collateral", "por"}
	tableKeywords  = []string{"reserves", "assets", "liabilities", "collateral", "attestation"}
	apiRefMarkers  = []string{"api.", "/api/", "api/v1", "api/v2"}
)

// contentAnalyzer runs the full-page heuristics. Each of the five checks
// contributes independently; the page qualifies when the contributions add up
// past the interest floor.
type contentAnalyzer struct {
	fetcher        *providers.WebFetcher
	parser         Parser
	maxSites       int
	minInteresting float64
	logger         *logrus.Entry
}

// Run analyzes up to maxSites homepages and returns the best candidate.
func (a *contentAnalyzer) Run(ctx context.Context, homepages []string) *models.EvidenceCandidate {
	sites := homepages
	if len(sites) > a.maxSites {
		sites = sites[:a.maxSites]
	}

	var best *models.EvidenceCandidate
	pages := a.fetcher.FetchAll(ctx, sites)
	for pageURL, body := range pages {
		if c := a.analyzeBody(pageURL, body); c != nil {
			if best == nil || c.Confidence > best.Confidence {
				best = c
			}
		}
	}
	return best
}

// AnalyzePage fetches and analyzes a single page.
func (a *contentAnalyzer) AnalyzePage(ctx context.Context, pageURL string) *models.EvidenceCandidate {
	body, err := a.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil
	}
	return a.analyzeBody(pageURL, body)
}

func (a *contentAnalyzer) analyzeBody(pageURL, body string) *models.EvidenceCandidate {
	sections := a.parser.Sections(body)
	var confidence float64

	if a.parser.FindKeywords(sections.Meta, metaKeywords) > 0 {
		confidence += 0.20
	}
	if a.parser.FindKeywords(sections.Scripts, scriptKeywords) >= 2 {
		confidence += 0.15
	}
	if a.parser.FindKeywords(sections.Tables, tableKeywords) >= 2 {
		confidence += 0.20
	}
	if a.hasReserveAPIRefs(body) {
		confidence += 0.15
	}
	for _, blob := range a.parser.ExtractStructuredData(body) {
		if a.parser.FindKeywords(blob, metaKeywords) > 0 {
			confidence += 0.20
			break
		}
	}

	if confidence > 0.90 {
		confidence = 0.90
	}
	if confidence < a.minInteresting {
		return nil
	}

	fields := extractFields(body)
	if fields.DashboardURL == "" {
		fields.DashboardURL = pageURL
	}

	a.logger.WithFields(logrus.Fields{
		"url":        pageURL,
		"confidence": confidence,
	}).Debug("Content analysis hit")

	return &models.EvidenceCandidate{
		URL:        pageURL,
		Origin:     models.LayerContentAnalysis,
		Confidence: confidence,
		Fields:     fields,
	}
}

// hasReserveAPIRefs spots pages that load reserve figures from a data API,
// which is a strong live-dashboard signal even when the rendered markup says
// little.
func (a *contentAnalyzer) hasReserveAPIRefs(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range apiRefMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		windowEnd := idx + 200
		if windowEnd > len(lower) {
			windowEnd = len(lower)
		}
		if containsAnyOf(lower[idx:windowEnd], []string{"reserve", "attestation", "collateral"}) {
			return true
		}
	}
	return false
}
