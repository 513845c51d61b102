package audits

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/discovery"
	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

// CuratedLookup is the slice of the curated registry audit discovery needs.
type CuratedLookup interface {
	AuditSources(ctx context.Context, symbol string) []curated.AuditSource
	PathOverrides(ctx context.Context, symbol string) []string
}

// Finder locates third-party audit evidence from repositories and
// documentation sites.
type Finder struct {
	cfg     *config.AuditsConfig
	curated CuratedLookup
	repo    *repoSearcher
	docs    *docSearcher
	logger  *logrus.Entry
	now     func() time.Time
}

// NewFinder wires the repository and documentation searchers.
func NewFinder(cfg *config.AuditsConfig, github *providers.GitHubClient, fetcher *providers.WebFetcher, parser discovery.Parser, cur CuratedLookup, log *logrus.Logger) *Finder {
	logger := log.WithField("component", "audits")
	f := &Finder{
		cfg:     cfg,
		curated: cur,
		logger:  logger,
		now:     time.Now,
		repo: &repoSearcher{
			github: github,
			logger: logger,
		},
	}
	f.docs = &docSearcher{
		fetcher:         fetcher,
		linkFinder:      docLinkFinder{parser: parser},
		pathOverrides:   cur.PathOverrides,
		batchSize:       cfg.BatchSize,
		sufficientCount: cfg.SufficientCount,
		logger:          logger,
	}
	return f
}

// Find returns the known audits for a symbol, newest first. A curated audit
// URL bypasses the search entirely; otherwise the repository and
// documentation searches run concurrently and their results are combined.
func (f *Finder) Find(ctx context.Context, symbol string, homepages, repoURLs []string) []models.AuditRecord {
	if sources := f.curated.AuditSources(ctx, symbol); len(sources) > 0 {
		return f.fromCurated(ctx, sources)
	}

	var (
		wg        sync.WaitGroup
		repoFound []models.AuditRecord
		docsFound []models.AuditRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		repoFound = f.repo.Search(ctx, symbol, repoURLs)
	}()
	go func() {
		defer wg.Done()
		docsFound = f.docs.Search(ctx, symbol, homepages)
	}()
	wg.Wait()

	combined := combineRanked(repoFound, docsFound)
	combined = Dedupe(combined)
	combined = f.filterRecent(combined)

	f.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"repo":   len(repoFound),
		"docs":   len(docsFound),
		"kept":   len(combined),
	}).Info("Audit discovery complete")
	return combined
}

// fromCurated fetches and parses each vetted audit page. An unreachable page
// still yields its curated firm so a transient outage never erases known
// audit history.
func (f *Finder) fromCurated(ctx context.Context, sources []curated.AuditSource) []models.AuditRecord {
	var records []models.AuditRecord
	for _, src := range sources {
		found := f.docs.probePage(ctx, src.URL)
		if len(found) == 0 && src.Firm != "" {
			found = []models.AuditRecord{{
				Firm:      src.Firm,
				ReportURL: src.URL,
				Source:    "curated",
			}}
		}
		for i := range found {
			found[i].Source = "curated"
		}
		records = append(records, found...)
	}
	records = Dedupe(records)
	sortNewestFirst(records)
	return records
}

// combineRanked takes the larger result set as primary and appends audits
// from the other sets that are not already present.
func combineRanked(sets ...[]models.AuditRecord) []models.AuditRecord {
	nonEmpty := make([][]models.AuditRecord, 0, len(sets))
	for _, s := range sets {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	sort.SliceStable(nonEmpty, func(i, j int) bool {
		return len(nonEmpty[i]) > len(nonEmpty[j])
	})

	seen := make(map[string]bool)
	var combined []models.AuditRecord
	for _, set := range nonEmpty {
		for _, r := range set {
			if !seen[r.Key()] {
				seen[r.Key()] = true
				combined = append(combined, r)
			}
		}
	}
	return combined
}

// Dedupe removes duplicate audits by firm, date and report URL. It is
// idempotent and preserves first-seen order.
func Dedupe(records []models.AuditRecord) []models.AuditRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, r := range records {
		if !seen[r.Key()] {
			seen[r.Key()] = true
			out = append(out, r)
		}
	}
	return out
}

// filterRecent keeps audits dated within the configured window, newest
// first. Undated audits cannot prove recency and are dropped.
func (f *Finder) filterRecent(records []models.AuditRecord) []models.AuditRecord {
	cutoff := f.now().Add(-f.cfg.MaxAge)
	kept := records[:0:0]
	for _, r := range records {
		if !r.Date.IsZero() && r.Date.After(cutoff) {
			kept = append(kept, r)
		}
	}
	sortNewestFirst(kept)
	return kept
}

func sortNewestFirst(records []models.AuditRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// docLinkFinder adapts the discovery parser to homepage documentation-link
// scanning.
type docLinkFinder struct {
	parser discovery.Parser
}

func (f docLinkFinder) FindDocLinks(body, baseURL string) []string {
	var out []string
	for _, link := range f.parser.ParseLinks(body, baseURL) {
		if containsAny(strings.ToLower(link.Text+" "+link.URL), docsLinkTerms...) {
			out = append(out, link.URL)
		}
	}
	return out
}
