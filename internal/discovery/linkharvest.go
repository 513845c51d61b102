package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// transparencySubdomains are conventional hosts projects park dashboards on.
var transparencySubdomains = []string{
	"transparency", "info", "dashboard", "data", "stats", "reserves",
}

// linkHarvester is the cheapest discovery strategy: read each homepage's
// anchors, score them, and probe the conventional dashboard subdomains.
type linkHarvester struct {
	fetcher  *providers.WebFetcher
	parser   Parser
	maxSites int
	logger   *logrus.Entry
}

func (h *linkHarvester) Run(ctx context.Context, homepages []string) *models.EvidenceCandidate {
	sites := homepages
	if len(sites) > h.maxSites {
		sites = sites[:h.maxSites]
	}

	var (
		matchCount int
		bestURL    string
		bestScore  float64
		fields     models.EvidenceFields
	)

	pages := h.fetcher.FetchAll(ctx, sites)
	for pageURL, body := range pages {
		for _, link := range h.parser.ParseLinks(body, pageURL) {
			score := scoreLink(link)
			if score < minLinkScore {
				continue
			}
			matchCount++
			if score > bestScore {
				bestScore = score
				bestURL = link.URL
			}
			if containsAnyOf(strings.ToLower(link.Text+" "+link.URL),
				[]string{"proof of reserves", "proof-of-reserves"}) {
				fields.HasProofOfReserves = true
			}
		}
	}

	if len(sites) > 0 {
		for _, sub := range h.probeSubdomains(ctx, sites[0]) {
			matchCount++
			if bestURL == "" {
				bestURL = sub
			}
		}
	}

	if matchCount == 0 {
		return nil
	}

	confidence := 0.6 + 0.1*float64(matchCount)
	if confidence > 0.95 {
		confidence = 0.95
	}
	fields.DashboardURL = bestURL

	h.logger.WithFields(logrus.Fields{
		"matches":    matchCount,
		"confidence": confidence,
	}).Debug("Link harvest complete")

	return &models.EvidenceCandidate{
		URL:        bestURL,
		Origin:     models.LayerLinkHarvest,
		Confidence: confidence,
		Fields:     fields,
	}
}

// probeSubdomains existence-checks the conventional transparency hosts for a
// site and returns the reachable ones.
func (h *linkHarvester) probeSubdomains(ctx context.Context, site string) []string {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.TrimPrefix(u.Host, "www.")

	var reachable []string
	for _, sub := range transparencySubdomains {
		candidate := "https://" + sub + "." + host
		if h.fetcher.Probe(ctx, candidate) {
			reachable = append(reachable, candidate)
		}
	}
	return reachable
}
