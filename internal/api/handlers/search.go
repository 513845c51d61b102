package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/models"
)

// Searcher finds candidate assets for a ticker.
type Searcher interface {
	Search(ctx context.Context, ticker string) ([]providers.SearchMatch, error)
}

// SearchHandler serves ticker lookups so callers can disambiguate before
// spending assessment quota.
type SearchHandler struct {
	searcher Searcher
	logger   *logrus.Entry
}

// NewSearchHandler creates the search endpoint.
func NewSearchHandler(searcher Searcher, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		logger:   log.WithField("component", "search-handler"),
	}
}

// RegisterRoutes attaches the search endpoint to a router.
func (h *SearchHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/search", h.handleSearch).Methods("GET")
}

func (h *SearchHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if !tickerRe.MatchString(query) {
		WriteError(w, http.StatusBadRequest, models.ErrValidation, "q must be 1-20 alphanumeric characters")
		return
	}

	matches, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Warn("Search failed")
		WriteError(w, http.StatusBadGateway, models.ErrProvider, "search provider unavailable")
		return
	}

	data := map[string]interface{}{
		"found":  len(matches) > 0,
		"ticker": strings.ToUpper(query),
	}
	if len(matches) > 0 {
		data["basic_info"] = matches[0]
	}
	WriteJSON(w, http.StatusOK, models.Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteJSON writes a JSON response body with status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError writes the uniform error envelope.
func WriteError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	WriteJSON(w, status, models.Envelope{
		Success:   false,
		Error:     string(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}
