package providers

import (
	"strings"

	"github.com/pegwatch/pkg/models"
)

// knownPegging covers major issuers whose mechanism is settled knowledge, so
// description parsing never misclassifies them.
var knownPegging = map[string]models.PeggingType{
	"USDT":  models.PegFiatBacked,
	"USDC":  models.PegFiatBacked,
	"TUSD":  models.PegFiatBacked,
	"USDP":  models.PegFiatBacked,
	"GUSD":  models.PegFiatBacked,
	"PYUSD": models.PegFiatBacked,
	"FDUSD": models.PegFiatBacked,
	"DAI":   models.PegCryptoCollateral,
	"LUSD":  models.PegCryptoCollateral,
	"SUSD":  models.PegCryptoCollateral,
	"PAXG":  models.PegCommodityBacked,
	"XAUT":  models.PegCommodityBacked,
	"FRAX":  models.PegAlgorithmic,
	"USDD":  models.PegAlgorithmic,
}

var (
	algorithmicKeywords = []string{
		"algorithmic", "rebasing", "supply adjustment", "seigniorage",
		"elastic supply", "mint and burn",
	}
	fiatKeywords = []string{
		"usd backed", "fiat backed", "fiat-backed", "dollar reserves",
		"bank deposits", "cash and cash equivalents", "fully backed by us dollar",
	}
	cryptoKeywords = []string{
		"crypto backed", "crypto collateral", "crypto-collateralized",
		"eth backed", "overcollateralized", "over-collateralized", "vault",
	}
	commodityKeywords = []string{
		"gold backed", "gold-backed", "silver backed", "commodity",
		"precious metals", "troy ounce",
	}
)

// ClassifyPegging infers an asset's pegging mechanism from the curated table
// first, then from description keywords.
func ClassifyPegging(symbol, name, description string) models.PeggingType {
	if t, ok := knownPegging[strings.ToUpper(symbol)]; ok {
		return t
	}

	text := strings.ToLower(name + " " + description)
	switch {
	case containsAny(text, algorithmicKeywords):
		return models.PegAlgorithmic
	case containsAny(text, commodityKeywords):
		return models.PegCommodityBacked
	case containsAny(text, cryptoKeywords):
		return models.PegCryptoCollateral
	case containsAny(text, fiatKeywords):
		return models.PegFiatBacked
	default:
		return models.PegUnknown
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
