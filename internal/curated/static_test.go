package curated

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSourceParsesEmbeddedData(t *testing.T) {
	s, err := NewStaticSource()
	require.NoError(t, err)
	assert.NotEmpty(t, s.Symbols())
}

func TestStaticSourceKnownSymbols(t *testing.T) {
	s, err := NewStaticSource()
	require.NoError(t, err)
	ctx := context.Background()

	for _, symbol := range []string{"USDT", "USDC", "DAI"} {
		entry, err := s.Entry(ctx, symbol)
		require.NoError(t, err)
		require.NotNil(t, entry, "expected curated entry for %s", symbol)
		require.NotNil(t, entry.Dashboard)
		assert.NotEmpty(t, entry.Dashboard.URL)
	}
}

func TestStaticSourceCaseInsensitive(t *testing.T) {
	s, err := NewStaticSource()
	require.NoError(t, err)

	lower, err := s.Entry(context.Background(), "usdt")
	require.NoError(t, err)
	upper, err := s.Entry(context.Background(), "USDT")
	require.NoError(t, err)
	assert.Same(t, upper, lower)
}

func TestStaticSourceUnknownSymbol(t *testing.T) {
	s, err := NewStaticSource()
	require.NoError(t, err)

	entry, err := s.Entry(context.Background(), "NOTACOIN")
	require.NoError(t, err)
	assert.Nil(t, entry)
}
