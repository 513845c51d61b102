package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

type fakeSearcher struct {
	matches []providers.SearchMatch
	err     error
}

func (f *fakeSearcher) Search(context.Context, string) ([]providers.SearchMatch, error) {
	return f.matches, f.err
}

func newSearchRouter(searcher Searcher) *mux.Router {
	h := NewSearchHandler(searcher, quietLogger())
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func TestSearchFound(t *testing.T) {
	router := newSearchRouter(&fakeSearcher{matches: []providers.SearchMatch{
		{ID: "usd-coin", Symbol: "USDC", Name: "USD Coin", MarketCapRank: 7},
		{ID: "some-other-usdc", Symbol: "USDC", Name: "Other", MarketCapRank: 900},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=usdc", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["found"])
	assert.Equal(t, "USDC", data["ticker"])

	info, ok := data["basic_info"].(map[string]interface{})
	require.True(t, ok, "the best match rides along as basic_info")
	assert.Equal(t, "usd-coin", info["id"])
	assert.Equal(t, "USD Coin", info["name"])
}

func TestSearchNotFound(t *testing.T) {
	router := newSearchRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=NOPE", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["found"])
	assert.Equal(t, "NOPE", data["ticker"])
	assert.NotContains(t, data, "basic_info")
}

func TestSearchMissingQuery(t *testing.T) {
	router := newSearchRouter(&fakeSearcher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.ErrValidation), envelope.Error)
}

func TestSearchProviderFailure(t *testing.T) {
	router := newSearchRouter(&fakeSearcher{err: errors.New("upstream down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=USDT", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.ErrProvider), envelope.Error)
}
