package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pegwatch/pkg/config"
)

// Pool is one DEX liquidity pool holding the asset.
type Pool struct {
	Name       string  `json:"name"`
	Dex        string  `json:"dex"`
	ReserveUSD float64 `json:"reserve_usd"`
}

// GeckoTerminalClient fetches DEX liquidity pools for a token.
type GeckoTerminalClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *logrus.Entry
}

// NewGeckoTerminalClient creates a GeckoTerminal client paced to stay under
// the public API's 30 calls/min allowance.
func NewGeckoTerminalClient(cfg *config.ProvidersConfig, log *logrus.Logger) *GeckoTerminalClient {
	return &GeckoTerminalClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.GeckoTerminalBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(0.5), 2),
		retry:      RetryPolicy{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay},
		logger:     log.WithField("component", "geckoterminal"),
	}
}

type poolsResponse struct {
	Data []struct {
		Attributes struct {
			Name         string `json:"name"`
			ReserveInUSD string `json:"reserve_in_usd"`
		} `json:"attributes"`
		Relationships struct {
			Dex struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"dex"`
		} `json:"relationships"`
	} `json:"data"`
}

// TokenPools returns the pools for a token on one network, largest reserves
// first as delivered by the API.
func (c *GeckoTerminalClient) TokenPools(ctx context.Context, network, tokenAddress string) ([]Pool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewError(CodeTimeout, "geckoterminal request abandoned: %v", err)
	}

	full := fmt.Sprintf("%s/networks/%s/tokens/%s/pools", c.baseURL, network, tokenAddress)
	var pr poolsResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return NewError(CodeNetwork, "failed to build request: %v", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(full, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return StatusError(resp.StatusCode, full)
		}
		if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
			return NewError(CodeDecode, "failed to decode pools for %s: %v", tokenAddress, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pools := make([]Pool, 0, len(pr.Data))
	for _, d := range pr.Data {
		reserve, _ := strconv.ParseFloat(d.Attributes.ReserveInUSD, 64)
		pools = append(pools, Pool{
			Name:       d.Attributes.Name,
			Dex:        d.Relationships.Dex.Data.ID,
			ReserveUSD: reserve,
		})
	}
	c.logger.WithFields(logrus.Fields{"network": network, "pools": len(pools)}).Debug("Fetched token pools")
	return pools, nil
}
