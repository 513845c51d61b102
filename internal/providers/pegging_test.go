package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pegwatch/pkg/models"
)

func TestClassifyPeggingKnownSymbols(t *testing.T) {
	assert.Equal(t, models.PegFiatBacked, ClassifyPegging("usdt", "Tether", ""))
	assert.Equal(t, models.PegCryptoCollateral, ClassifyPegging("DAI", "Dai", ""))
	assert.Equal(t, models.PegCommodityBacked, ClassifyPegging("PAXG", "PAX Gold", ""))
	assert.Equal(t, models.PegAlgorithmic, ClassifyPegging("FRAX", "Frax", ""))
}

func TestClassifyPeggingKnownSymbolBeatsDescription(t *testing.T) {
	// The curated table wins even over a contradictory description.
	got := ClassifyPegging("USDC", "USD Coin", "an algorithmic marvel")
	assert.Equal(t, models.PegFiatBacked, got)
}

func TestClassifyPeggingFromDescription(t *testing.T) {
	cases := []struct {
		description string
		want        models.PeggingType
	}{
		{"maintains its peg through algorithmic supply adjustment", models.PegAlgorithmic},
		{"each token is backed by one troy ounce of gold", models.PegCommodityBacked},
		{"an overcollateralized stablecoin backed by ETH vaults", models.PegCryptoCollateral},
		{"reserves held as cash and cash equivalents", models.PegFiatBacked},
		{"a novel synthetic asset", models.PegUnknown},
	}
	for _, tc := range cases {
		got := ClassifyPegging("NEWCOIN", "New Coin", tc.description)
		assert.Equal(t, tc.want, got, "description %q", tc.description)
	}
}
