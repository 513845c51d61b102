package liquidity

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// CuratedLookup is the slice of the curated registry the analyzer needs.
type CuratedLookup interface {
	TokenAddress(ctx context.Context, symbol string) (*curated.TokenAddress, bool)
}

// stableSymbols classify pool counterparties for the composition breakdown.
var stableSymbols = []string{
	"USDT", "USDC", "DAI", "TUSD", "USDP", "GUSD", "PYUSD", "FDUSD",
	"LUSD", "FRAX", "BUSD", "SUSD", "USDD", "USDE", "CRVUSD",
}

// Analyzer builds a liquidity distribution profile from the chain indexer
// and, when a contract address is pinned, the DEX indexer.
type Analyzer struct {
	llama   *providers.DefiLlamaClient
	gecko   *providers.GeckoTerminalClient
	curated CuratedLookup
	logger  *logrus.Entry
}

// NewAnalyzer wires the two indexer clients.
func NewAnalyzer(llama *providers.DefiLlamaClient, gecko *providers.GeckoTerminalClient, cur CuratedLookup, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		llama:   llama,
		gecko:   gecko,
		curated: cur,
		logger:  log.WithField("component", "liquidity"),
	}
}

// Profile computes the distribution of an asset's value across chains and
// exchanges. Chain data alone is enough for a profile; DEX data is additive.
// No usable data at all returns an error so the caller can degrade the
// factor explicitly.
func (a *Analyzer) Profile(ctx context.Context, symbol string) (*models.LiquidityProfile, error) {
	chains, err := a.llama.ChainCirculating(ctx, symbol)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Debug("Chain circulation unavailable")
		chains = nil
	}

	profile := &models.LiquidityProfile{
		ChainShares: make(map[string]float64),
		DexShares:   make(map[string]float64),
	}

	var total float64
	for _, usd := range chains {
		total += usd
	}
	if total > 0 {
		profile.TotalUSD = total
		profile.ChainCount = len(chains)
		var topUSD float64
		for chain, usd := range chains {
			share := usd / total
			profile.ChainShares[chain] = share
			if usd > topUSD {
				topUSD = usd
				profile.TopChain = chain
			}
		}
	}

	a.addDexShares(ctx, symbol, profile)

	if profile.TotalUSD <= 0 && len(profile.DexShares) == 0 {
		return nil, models.NewError(models.ErrProvider, "no liquidity data for "+symbol, nil)
	}
	return profile, nil
}

// addDexShares folds in pool-level data when a contract address is pinned in
// the curated registry. Failures leave the chain-level profile intact.
func (a *Analyzer) addDexShares(ctx context.Context, symbol string, profile *models.LiquidityProfile) {
	addr, ok := a.curated.TokenAddress(ctx, symbol)
	if !ok {
		return
	}

	pools, err := a.gecko.TokenPools(ctx, addr.Network, addr.Address)
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Debug("DEX pools unavailable")
		return
	}

	var poolTotal, stableTotal float64
	dexUSD := make(map[string]float64)
	for _, pool := range pools {
		poolTotal += pool.ReserveUSD
		dexUSD[pool.Dex] += pool.ReserveUSD
		if isStablePair(symbol, pool.Name) {
			stableTotal += pool.ReserveUSD
		}
	}
	if poolTotal <= 0 {
		return
	}

	var topUSD float64
	for dex, usd := range dexUSD {
		profile.DexShares[dex] = usd / poolTotal
		if usd > topUSD {
			topUSD = usd
			profile.TopDex = dex
		}
	}
	profile.StableStablePercent = stableTotal / poolTotal * 100
	profile.VolatileStablePercent = 100 - profile.StableStablePercent
	if profile.TotalUSD <= 0 {
		profile.TotalUSD = poolTotal
	}
}

// isStablePair reports whether a pool pairs the asset against another
// stablecoin, judged from the pool name.
func isStablePair(symbol, poolName string) bool {
	upper := strings.ToUpper(poolName)
	for _, s := range stableSymbols {
		if s == strings.ToUpper(symbol) {
			continue
		}
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}
