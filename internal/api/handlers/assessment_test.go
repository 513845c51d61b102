package handlers

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegwatch/internal/assess"
	"github.com/pegwatch/pkg/models"
)

type fakeRunner struct {
	frames []models.Frame
}

func (f *fakeRunner) Run(string) <-chan models.Frame {
	ch := make(chan models.Frame, len(f.frames))
	for _, frame := range f.frames {
		ch <- frame
	}
	close(ch)
	return ch
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newAssessmentRouter(frames ...models.Frame) *mux.Router {
	log := quietLogger()
	h := NewAssessmentHandler(&fakeRunner{frames: frames}, assess.NewAssembler(log), log)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func tierFrames() []models.Frame {
	return []models.Frame{
		{
			Tier: 1,
			Data: &models.Tier1Result{
				Identity:         &models.AssetIdentity{ID: "usd-coin", Symbol: "USDC", Name: "USD Coin"},
				PreliminaryScore: 90,
				PegStatus:        "stable",
				GeneratedAt:      time.Now().UTC(),
			},
		},
		{
			Tier: 3,
			Data: &models.Tier3Result{
				Factors:      map[string]*models.RiskFactorScore{},
				OverallScore: 80,
				RiskLevel:    models.RiskLow,
				GeneratedAt:  time.Now().UTC(),
			},
			Complete: true,
		},
	}
}

func TestAssessmentStreamsByDefault(t *testing.T) {
	router := newAssessmentRouter(tierFrames()...)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessment/USDC", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var frames []models.Frame
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var frame models.Frame
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &frame))
		frames = append(frames, frame)
	}
	require.Len(t, frames, 2)
	assert.Equal(t, float64(1), frames[0].Tier)
	assert.True(t, frames[1].Complete)
}

func TestAssessmentStreamFalseCollects(t *testing.T) {
	router := newAssessmentRouter(tierFrames()...)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessment/usdc?stream=false", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "USDC", data["symbol"])
	assert.Equal(t, true, data["complete"])
	assert.NotNil(t, data["tier1"])
	assert.NotNil(t, data["tier3"])
	assert.False(t, strings.Contains(rec.Body.String(), "\n{"), "collected response must be a single document")
}

func TestAssessmentStreamFalseUnknownTicker(t *testing.T) {
	router := newAssessmentRouter(models.Frame{
		Tier:     "error",
		Data:     map[string]interface{}{"code": "not_found", "message": "no stablecoin matches NOPE"},
		Complete: true,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessment/NOPE?stream=false", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, string(models.ErrNotFound), envelope.Error)
}

func TestAssessmentRejectsBadTicker(t *testing.T) {
	router := newAssessmentRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assessment/waytoolongforatickersymbol", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope models.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(models.ErrValidation), envelope.Error)
}
