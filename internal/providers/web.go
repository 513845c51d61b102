package providers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
)

// maxPageBytes bounds how much of a page gets read into memory.
const maxPageBytes = 2 << 20

// WebFetcher fetches arbitrary third-party pages for the discovery layers.
// Concurrency is bounded by a semaphore so discovery never overwhelms a
// target site, and every fetch carries its own timeout.
type WebFetcher struct {
	client      *http.Client
	probeClient *http.Client
	userAgent   string
	sem         chan struct{}
	retry       RetryPolicy
	logger      *logrus.Entry
}

// NewWebFetcher creates a website fetcher.
func NewWebFetcher(cfg *config.ProvidersConfig, log *logrus.Logger) *WebFetcher {
	return &WebFetcher{
		client:      &http.Client{Timeout: cfg.RequestTimeout},
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		userAgent:   cfg.UserAgent,
		sem:         make(chan struct{}, cfg.MaxConcurrentFetches),
		retry:       RetryPolicy{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay},
		logger:      log.WithField("component", "web-fetcher"),
	}
}

// FetchPage downloads a page body as text. Bounded retry applies since page
// fetches are idempotent.
func (f *WebFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return "", NewError(CodeTimeout, "fetch of %s abandoned: %v", url, ctx.Err())
	}

	var body string
	err := f.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return NewError(CodeNetwork, "failed to build request for %s: %v", url, err)
		}
		f.setHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			return classifyTransportError(url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return StatusError(resp.StatusCode, url)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return NewError(CodeNetwork, "failed to read body of %s: %v", url, err)
		}
		body = string(data)
		return nil
	})
	if err != nil {
		f.logger.WithError(err).WithField("url", url).Debug("Page fetch failed")
		return "", err
	}
	return body, nil
}

// Probe performs a lightweight existence check. A probe failure is a plain
// "no", never an error: unreachable candidates are expected.
func (f *WebFetcher) Probe(ctx context.Context, url string) bool {
	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	f.setHeaders(req)

	resp, err := f.probeClient.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func (f *WebFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

func classifyTransportError(url string, err error) *Error {
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return NewError(CodeTimeout, "request to %s timed out", url)
	}
	return NewError(CodeNetwork, "request to %s failed: %v", url, err)
}

// FetchAll fetches a set of URLs concurrently (bounded by the shared
// semaphore) and returns whatever succeeded, keyed by URL. Individual
// failures never abort siblings.
func (f *WebFetcher) FetchAll(ctx context.Context, urls []string) map[string]string {
	type page struct {
		url  string
		body string
		err  error
	}
	results := make(chan page, len(urls))

	for _, u := range urls {
		go func(u string) {
			body, err := f.FetchPage(ctx, u)
			results <- page{url: u, body: body, err: err}
		}(u)
	}

	pages := make(map[string]string)
	deadline := time.After(f.client.Timeout * 3)
	for range urls {
		select {
		case p := <-results:
			if p.err == nil {
				pages[p.url] = p.body
			}
		case <-deadline:
			return pages
		case <-ctx.Done():
			return pages
		}
	}
	return pages
}
