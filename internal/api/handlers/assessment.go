package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/assess"
	"github.com/pegwatch/pkg/models"
)

var tickerRe = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)

// Runner produces the frame stream for one assessment.
type Runner interface {
	Run(ticker string) <-chan models.Frame
}

// AssessmentHandler serves tiered assessments, streaming and collected.
type AssessmentHandler struct {
	orchestrator Runner
	assembler    *assess.Assembler
	upgrader     websocket.Upgrader
	logger       *logrus.Entry
}

// NewAssessmentHandler creates the assessment endpoints.
func NewAssessmentHandler(orchestrator Runner, assembler *assess.Assembler, log *logrus.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		orchestrator: orchestrator,
		assembler:    assembler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log.WithField("component", "assessment-handler"),
	}
}

// RegisterRoutes attaches the assessment endpoints to a router.
func (h *AssessmentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/assessment/{ticker}", h.handleAssessment).Methods("GET")
	router.HandleFunc("/ws", h.handleWebSocket).Methods("GET")
}

// handleAssessment runs an assessment. Tiers arrive as newline-delimited
// JSON frames unless the caller opts out with ?stream=false, in which case
// the handler waits for completion and returns the assembled assessment.
func (h *AssessmentHandler) handleAssessment(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if !tickerRe.MatchString(ticker) {
		WriteError(w, http.StatusBadRequest, models.ErrValidation, "ticker must be 1-20 alphanumeric characters")
		return
	}

	frames := h.orchestrator.Run(ticker)

	if !strings.EqualFold(r.URL.Query().Get("stream"), "false") {
		h.assembler.StreamHTTP(w, r, frames)
		return
	}

	assessment, err := h.assembler.Collect(strings.ToUpper(ticker), frames)
	if err != nil {
		status := http.StatusBadGateway
		if models.IsNotFound(err) {
			status = http.StatusNotFound
		}
		WriteError(w, status, models.CodeOf(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, models.Envelope{
		Success:   true,
		Data:      assessment,
		Timestamp: time.Now().UTC(),
	})
}

// handleWebSocket streams assessment frames over a websocket. The ticker
// comes from the query string since websocket clients cannot set paths per
// message.
func (h *AssessmentHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if !tickerRe.MatchString(ticker) {
		WriteError(w, http.StatusBadRequest, models.ErrValidation, "ticker query parameter must be 1-20 alphanumeric characters")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	frames := h.orchestrator.Run(ticker)
	h.assembler.StreamWS(conn, frames)
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "assessment complete"))
}
