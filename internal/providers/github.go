package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pegwatch/pkg/config"
)

// RepoEntry is one file or directory in a repository listing.
type RepoEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // "file" or "dir"
	Size        int    `json:"size"`
	HTMLURL     string `json:"html_url"`
	DownloadURL string `json:"download_url"`
}

// GitHubClient lists repository contents and fetches small text files for
// audit discovery.
type GitHubClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *logrus.Entry
}

// NewGitHubClient creates a GitHub contents-API client. Unauthenticated
// callers get 60 requests/hour, so pacing stays conservative.
func NewGitHubClient(cfg *config.ProvidersConfig, log *logrus.Logger) *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.GitHubBaseURL,
		token:      cfg.GitHubToken,
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
		retry:      RetryPolicy{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay},
		logger:     log.WithField("component", "github"),
	}
}

// ParseRepoURL extracts "owner/repo" from a github.com URL.
func ParseRepoURL(repoURL string) (string, bool) {
	u, err := url.Parse(repoURL)
	if err != nil || !strings.Contains(u.Host, "github.com") {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + strings.TrimSuffix(parts[1], ".git"), true
}

// ListDir lists a directory of a repository. path "" lists the root.
func (c *GitHubClient) ListDir(ctx context.Context, repoFullName, path string) ([]RepoEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repoFullName, path)
	var entries []RepoEntry
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

type fileResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
}

// maxAuditFileBytes keeps firm/date extraction from pulling huge blobs.
const maxAuditFileBytes = 256 * 1024

// FileText fetches a file's decoded text content. Oversized or binary-ish
// files come back empty without error; callers fall back to filename-only
// extraction.
func (c *GitHubClient) FileText(ctx context.Context, repoFullName, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, repoFullName, path)
	var fr fileResponse
	if err := c.get(ctx, endpoint, &fr); err != nil {
		return "", err
	}
	if fr.Size > maxAuditFileBytes || fr.Encoding != "base64" {
		return "", nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(fr.Content, "\n", ""))
	if err != nil {
		return "", nil
	}
	return string(decoded), nil
}

func (c *GitHubClient) get(ctx context.Context, full string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return NewError(CodeTimeout, "github request abandoned: %v", err)
	}

	return c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return NewError(CodeNetwork, "failed to build request: %v", err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(full, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return StatusError(http.StatusTooManyRequests, full)
		}
		if resp.StatusCode != http.StatusOK {
			return StatusError(resp.StatusCode, full)
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return NewError(CodeDecode, "failed to decode response from %s: %v", full, err)
		}
		return nil
	})
}
