package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// enumSubdomains is the probe list for the enumeration strategy. Broader than
// the harvester's list since this layer only runs against one site.
var enumSubdomains = []string{
	"transparency", "info", "dashboard", "data", "stats",
	"reserves", "reports", "docs", "attestations",
}

// subdomainBoost rewards evidence found on a dedicated host over the same
// signal on a homepage.
const subdomainBoost = 1.10

// subdomainEnumerator probes candidate subdomains of the top-priority site
// and content-analyzes whichever respond.
type subdomainEnumerator struct {
	fetcher *providers.WebFetcher
	content *contentAnalyzer
	logger  *logrus.Entry
}

func (e *subdomainEnumerator) Run(ctx context.Context, topSite string) *models.EvidenceCandidate {
	u, err := url.Parse(topSite)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.TrimPrefix(u.Host, "www.")

	var best *models.EvidenceCandidate
	for _, sub := range enumSubdomains {
		candidate := "https://" + sub + "." + host
		if !e.fetcher.Probe(ctx, candidate) {
			continue
		}
		c := e.content.AnalyzePage(ctx, candidate)
		if c == nil {
			continue
		}
		c.Origin = models.LayerSubdomainEnum
		c.Confidence *= subdomainBoost
		if c.Confidence > 0.95 {
			c.Confidence = 0.95
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}

	if best != nil {
		e.logger.WithFields(logrus.Fields{
			"url":        best.URL,
			"confidence": best.Confidence,
		}).Debug("Subdomain enumeration hit")
	}
	return best
}
