package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

// bridgedTerms mark coin variants that are not the canonical issuer.
var bridgedTerms = []string{
	"bridged", "bridge", "wrapped", "wormhole", "portal", "anyswap",
	"multichain", "nomad", "celer", "hop", "synapse", "across", "stargate",
}

// CoinGeckoClient resolves asset identities and fetches price history.
type CoinGeckoClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	logger      *logrus.Entry
	retry       RetryPolicy
	rateLimiter chan struct{}
}

// NewCoinGeckoClient creates a CoinGecko client. The free tier allows about
// 30 calls/min, so requests are paced through a ticker-fed token channel.
func NewCoinGeckoClient(cfg *config.ProvidersConfig, log *logrus.Logger) *CoinGeckoClient {
	c := &CoinGeckoClient{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:     cfg.CoinGeckoBaseURL,
		apiKey:      cfg.CoinGeckoAPIKey,
		logger:      log.WithField("component", "coingecko"),
		retry:       RetryPolicy{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay},
		rateLimiter: make(chan struct{}, 1),
	}
	go c.rateLimitWorker()
	return c
}

func (c *CoinGeckoClient) rateLimitWorker() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		select {
		case c.rateLimiter <- struct{}{}:
		default:
		}
	}
}

type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Symbol        string `json:"symbol"`
		Name          string `json:"name"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

type coinResponse struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
		ReposURL struct {
			Github []string `json:"github"`
		} `json:"repos_url"`
	} `json:"links"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
		MarketCap    map[string]float64 `json:"market_cap"`
	} `json:"market_data"`
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// SearchMatch is one candidate returned by ticker search, bridged variants
// already filtered out.
type SearchMatch struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// Search finds candidate coins for a ticker, excluding bridged and wrapped
// variants so the canonical issuer wins.
func (c *CoinGeckoClient) Search(ctx context.Context, ticker string) ([]SearchMatch, error) {
	var sr searchResponse
	endpoint := fmt.Sprintf("/search?query=%s", url.QueryEscape(ticker))
	if err := c.get(ctx, endpoint, &sr); err != nil {
		return nil, err
	}

	upper := strings.ToUpper(ticker)
	var matches []SearchMatch
	for _, coin := range sr.Coins {
		if strings.ToUpper(coin.Symbol) != upper {
			continue
		}
		if isBridgedVariant(coin.Name, coin.ID) {
			continue
		}
		matches = append(matches, SearchMatch{
			ID:            coin.ID,
			Symbol:        strings.ToUpper(coin.Symbol),
			Name:          coin.Name,
			MarketCapRank: coin.MarketCapRank,
		})
	}

	// Best-ranked (lowest non-zero rank) first.
	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := matches[i].MarketCapRank, matches[j].MarketCapRank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
	return matches, nil
}

// ResolveIdentity resolves a ticker to a full asset identity. Returns a
// not_found error when no canonical coin matches.
func (c *CoinGeckoClient) ResolveIdentity(ctx context.Context, ticker string) (*models.AssetIdentity, error) {
	matches, err := c.Search(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, NewError(CodeNotFound, "no coin found for ticker %s", ticker)
	}

	var cr coinResponse
	endpoint := fmt.Sprintf("/coins/%s?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false", matches[0].ID)
	if err := c.get(ctx, endpoint, &cr); err != nil {
		return nil, err
	}

	identity := &models.AssetIdentity{
		ID:           cr.ID,
		Symbol:       strings.ToUpper(cr.Symbol),
		Name:         cr.Name,
		CurrentPrice: cr.MarketData.CurrentPrice["usd"],
		MarketCapUSD: cr.MarketData.MarketCap["usd"],
		Description:  cr.Description.En,
		ResolvedAt:   time.Now().UTC(),
	}
	for _, h := range cr.Links.Homepage {
		if h != "" {
			identity.Links.Homepages = append(identity.Links.Homepages, strings.TrimRight(h, "/"))
		}
	}
	for _, r := range cr.Links.ReposURL.Github {
		if r != "" {
			identity.Links.GithubRepos = append(identity.Links.GithubRepos, r)
		}
	}
	identity.PeggingType = ClassifyPegging(identity.Symbol, identity.Name, identity.Description)
	return identity, nil
}

// PriceHistory fetches a time-ascending daily price sequence with deviation
// from a 1.00 peg precomputed.
func (c *CoinGeckoClient) PriceHistory(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	var mc marketChartResponse
	endpoint := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=%d", coinID, days)
	if err := c.get(ctx, endpoint, &mc); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(mc.Prices))
	for _, pair := range mc.Prices {
		if len(pair) < 2 {
			continue
		}
		price := pair[1]
		points = append(points, models.PricePoint{
			TimestampMs:      int64(pair[0]),
			Price:            price,
			DeviationPercent: deviationPercent(price, 1.0),
		})
	}
	return points, nil
}

func (c *CoinGeckoClient) get(ctx context.Context, endpoint string, dest interface{}) error {
	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return NewError(CodeTimeout, "coingecko request abandoned: %v", ctx.Err())
	}

	full := c.baseURL + endpoint
	return c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return NewError(CodeNetwork, "failed to build request: %v", err)
		}
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(full, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return StatusError(resp.StatusCode, full)
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return NewError(CodeDecode, "failed to decode response from %s: %v", full, err)
		}
		return nil
	})
}

func isBridgedVariant(name, id string) bool {
	lower := strings.ToLower(name + " " + id)
	for _, term := range bridgedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func deviationPercent(price, peg float64) float64 {
	if peg == 0 {
		return 0
	}
	d := (price - peg) / peg * 100
	if d < 0 {
		return -d
	}
	return d
}
