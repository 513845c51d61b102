package audits

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// Common documentation layouts probed on every candidate site.
var defaultDocPaths = []string{
	"/audits", "/security/audits", "/docs/audits", "/audit-reports",
	"/security", "/resources/audits", "/transparency/#reports",
}

// docSubdomains are hosts projects conventionally serve documentation from.
var docSubdomains = []string{"docs", "developers", "security"}

// docsLinkTerms mark homepage anchors that lead to documentation.
var docsLinkTerms = []string{"docs", "documentation", "developer", "whitepaper", "audit"}

// docSearcher probes documentation sites for audit listing pages.
type docSearcher struct {
	fetcher         *providers.WebFetcher
	linkFinder      LinkFinder
	pathOverrides   func(ctx context.Context, symbol string) []string
	batchSize       int
	sufficientCount int
	logger          *logrus.Entry
}

// LinkFinder extracts anchors from a page so candidate documentation sites
// can be found in homepage navigation.
type LinkFinder interface {
	FindDocLinks(body, baseURL string) []string
}

// Search probes candidate documentation pages for a symbol in bounded-size
// parallel batches. Early termination at the sufficient count is advisory:
// the in-flight batch still completes, later batches are skipped.
func (s *docSearcher) Search(ctx context.Context, symbol string, homepages []string) []models.AuditRecord {
	targets := s.buildTargets(ctx, symbol, homepages)

	var (
		mu      sync.Mutex
		records []models.AuditRecord
	)

	for start := 0; start < len(targets); start += s.batchSize {
		mu.Lock()
		enough := len(records) >= s.sufficientCount
		mu.Unlock()
		if enough {
			s.logger.WithFields(logrus.Fields{
				"symbol": symbol,
				"found":  len(records),
			}).Debug("Sufficient audits found, skipping remaining batches")
			break
		}
		if ctx.Err() != nil {
			break
		}

		end := start + s.batchSize
		if end > len(targets) {
			end = len(targets)
		}

		var wg sync.WaitGroup
		for _, target := range targets[start:end] {
			wg.Add(1)
			go func(target string) {
				defer wg.Done()
				found := s.probePage(ctx, target)
				if len(found) == 0 {
					return
				}
				mu.Lock()
				records = append(records, found...)
				mu.Unlock()
			}(target)
		}
		wg.Wait()
	}
	return records
}

// probePage fetches one candidate page and extracts every audit mention.
func (s *docSearcher) probePage(ctx context.Context, pageURL string) []models.AuditRecord {
	body, err := s.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil
	}
	lower := strings.ToLower(body)
	if !containsAny(lower, "audit", "attestation") {
		return nil
	}

	var records []models.AuditRecord
	seen := make(map[string]bool)
	for _, fp := range firmPatterns {
		loc := fp.pattern.FindStringIndex(body)
		if loc == nil || seen[fp.name] {
			continue
		}
		seen[fp.name] = true

		start := loc[0] - 300
		if start < 0 {
			start = 0
		}
		end := loc[1] + 300
		if end > len(body) {
			end = len(body)
		}
		window := body[start:end]

		records = append(records, models.AuditRecord{
			Firm:       fp.name,
			Date:       ExtractDate(window),
			ReportURL:  pageURL,
			Source:     "docsite",
			AuditType:  ClassifyAuditType(pageURL, window),
			IssueCount: CountIssues(window),
		})
	}
	return records
}

// buildTargets assembles the candidate page list: curated path overrides
// first, then same-domain layouts, documentation subdomains, and links
// scraped from the homepages.
func (s *docSearcher) buildTargets(ctx context.Context, symbol string, homepages []string) []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			targets = append(targets, u)
		}
	}

	if s.pathOverrides != nil {
		for _, override := range s.pathOverrides(ctx, symbol) {
			if strings.HasPrefix(override, "http") {
				add(override)
			} else if len(homepages) > 0 {
				if base, err := url.Parse(homepages[0]); err == nil {
					add(base.Scheme + "://" + base.Host + override)
				}
			}
		}
	}

	for _, homepage := range homepages {
		base, err := url.Parse(homepage)
		if err != nil || base.Host == "" {
			continue
		}
		origin := base.Scheme + "://" + base.Host
		for _, path := range defaultDocPaths {
			add(origin + path)
		}
		host := strings.TrimPrefix(base.Host, "www.")
		for _, sub := range docSubdomains {
			add("https://" + sub + "." + host + "/audits")
		}
	}

	if s.linkFinder != nil && len(homepages) > 0 {
		if body, err := s.fetcher.FetchPage(ctx, homepages[0]); err == nil {
			for _, link := range s.linkFinder.FindDocLinks(body, homepages[0]) {
				add(link)
			}
		}
	}
	return targets
}
