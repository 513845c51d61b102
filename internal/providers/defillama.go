package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
)

// DefiLlamaClient fetches per-chain circulating amounts for stablecoins.
type DefiLlamaClient struct {
	httpClient *http.Client
	baseURL    string
	retry      RetryPolicy
	logger     *logrus.Entry
}

// NewDefiLlamaClient creates a DefiLlama stablecoins client.
func NewDefiLlamaClient(cfg *config.ProvidersConfig, log *logrus.Logger) *DefiLlamaClient {
	return &DefiLlamaClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.DefiLlamaBaseURL,
		retry:      RetryPolicy{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay},
		logger:     log.WithField("component", "defillama"),
	}
}

type chainAmounts struct {
	Current map[string]float64 `json:"current"`
}

type stablecoinsResponse struct {
	PeggedAssets []struct {
		Symbol           string                  `json:"symbol"`
		ChainCirculating map[string]chainAmounts `json:"chainCirculating"`
	} `json:"peggedAssets"`
}

// ChainCirculating returns USD value circulating per chain for a symbol, or
// not_found when DefiLlama does not track it.
func (c *DefiLlamaClient) ChainCirculating(ctx context.Context, symbol string) (map[string]float64, error) {
	full := c.baseURL + "/stablecoins?includePrices=false"
	var sr stablecoinsResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return NewError(CodeNetwork, "failed to build request: %v", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(full, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return StatusError(resp.StatusCode, full)
		}
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return NewError(CodeDecode, "failed to decode stablecoins list: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	upper := strings.ToUpper(symbol)
	for _, asset := range sr.PeggedAssets {
		if strings.ToUpper(asset.Symbol) != upper {
			continue
		}
		chains := make(map[string]float64, len(asset.ChainCirculating))
		for chain, amounts := range asset.ChainCirculating {
			var total float64
			for _, v := range amounts.Current {
				total += v
			}
			if total > 0 {
				chains[chain] = total
			}
		}
		return chains, nil
	}
	return nil, NewError(CodeNotFound, "symbol %s not tracked by defillama", symbol)
}
