package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// staticCrawlPaths are always worth a look regardless of what the homepage
// navigation exposes.
var staticCrawlPaths = []string{
	"/transparency", "/reserves", "/attestations", "/audits",
	"/security", "/reports", "/about",
}

// crawlBoost marks results that took a full crawl to surface.
const crawlBoost = 0.05

// crawler is the most expensive strategy: walk a bounded set of likely paths
// on the top site and content-analyze each page.
type crawler struct {
	fetcher  *providers.WebFetcher
	parser   Parser
	content  *contentAnalyzer
	maxPages int
	logger   *logrus.Entry
}

func (c *crawler) Run(ctx context.Context, topSite string) *models.EvidenceCandidate {
	base, err := url.Parse(topSite)
	if err != nil || base.Host == "" {
		return nil
	}

	targets := c.buildTargets(ctx, base)
	if len(targets) > c.maxPages {
		targets = targets[:c.maxPages]
	}

	var best *models.EvidenceCandidate
	pages := c.fetcher.FetchAll(ctx, targets)
	for pageURL, body := range pages {
		cand := c.content.analyzeBody(pageURL, body)
		if cand == nil {
			continue
		}
		cand.Origin = models.LayerIntelligentCrawl
		cand.Confidence += crawlBoost
		if cand.Confidence > 0.95 {
			cand.Confidence = 0.95
		}
		if best == nil || cand.Confidence > best.Confidence {
			best = cand
		}
	}

	if best != nil {
		c.logger.WithFields(logrus.Fields{
			"url":        best.URL,
			"confidence": best.Confidence,
		}).Debug("Crawl hit")
	}
	return best
}

// buildTargets combines the static path list with navigation paths scraped
// from the homepage, same-host only, deduplicated in order.
func (c *crawler) buildTargets(ctx context.Context, base *url.URL) []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(full string) {
		if !seen[full] {
			seen[full] = true
			targets = append(targets, full)
		}
	}

	for _, path := range staticCrawlPaths {
		add(base.Scheme + "://" + base.Host + path)
	}

	body, err := c.fetcher.FetchPage(ctx, base.String())
	if err != nil {
		return targets
	}
	for _, link := range c.parser.ParseLinks(body, base.String()) {
		u, err := url.Parse(link.URL)
		if err != nil || !strings.EqualFold(u.Host, base.Host) || u.Path == "" || u.Path == "/" {
			continue
		}
		if scoreLink(link) >= 0.2 {
			add(base.Scheme + "://" + base.Host + u.Path)
		}
	}
	return targets
}
