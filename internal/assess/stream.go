package assess

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/models"
)

// Assembler delivers assessment frames to callers. It decouples the consumer
// from the producer: when a caller disconnects mid-stream, the remaining
// frames are drained in the background so the orchestrator finishes and its
// results land in the cache.
type Assembler struct {
	logger *logrus.Entry
}

// NewAssembler creates a frame assembler.
func NewAssembler(log *logrus.Logger) *Assembler {
	return &Assembler{logger: log.WithField("component", "assembler")}
}

// StreamHTTP writes frames as newline-delimited JSON chunks, flushing after
// each so the caller sees tiers as they complete.
func (a *Assembler) StreamHTTP(w http.ResponseWriter, r *http.Request, frames <-chan models.Frame) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := encoder.Encode(frame); err != nil {
				a.logger.WithError(err).Debug("Client write failed, draining producer")
				drain(frames)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			a.logger.Debug("Client disconnected, draining producer")
			drain(frames)
			return
		}
	}
}

// StreamWS delivers frames over an established websocket connection.
func (a *Assembler) StreamWS(conn *websocket.Conn, frames <-chan models.Frame) {
	for frame := range frames {
		if err := conn.WriteJSON(frame); err != nil {
			a.logger.WithError(err).Debug("Websocket write failed, draining producer")
			drain(frames)
			return
		}
	}
}

// Collect consumes the whole stream and assembles the final non-streaming
// assessment. A terminal error frame surfaces as an error; tier-level error
// frames only leave their tier absent.
func (a *Assembler) Collect(symbol string, frames <-chan models.Frame) (*models.TieredAssessment, error) {
	assessment := &models.TieredAssessment{Symbol: symbol}
	for frame := range frames {
		switch tier := frame.Tier.(type) {
		case int:
			switch tier {
			case 1:
				if t1, ok := decodeTier[models.Tier1Result](frame.Data); ok {
					assessment.Tier1 = t1
				}
			case 2:
				if t2, ok := decodeTier[models.Tier2Result](frame.Data); ok {
					assessment.Tier2 = t2
				}
			case 3:
				if t3, ok := decodeTier[models.Tier3Result](frame.Data); ok {
					assessment.Tier3 = t3
				}
			}
		case string:
			if tier == "error" {
				drain(frames)
				return nil, frameError(frame)
			}
		}
		if frame.Complete {
			assessment.Complete = true
		}
	}
	return assessment, nil
}

// decodeTier recovers the concrete tier payload. Frames coming straight from
// the orchestrator carry typed pointers; frames replayed from serialized form
// carry generic maps and take the JSON round trip.
func decodeTier[T any](data interface{}) (*T, bool) {
	if typed, ok := data.(*T); ok {
		return typed, true
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func frameError(frame models.Frame) error {
	if payload, ok := frame.Data.(map[string]interface{}); ok {
		code, _ := payload["code"].(string)
		message, _ := payload["message"].(string)
		if code != "" || message != "" {
			return models.NewError(models.ErrorCode(code), message, nil)
		}
	}
	return models.NewError(models.ErrProvider, "assessment failed", nil)
}

func drain(frames <-chan models.Frame) {
	go func() {
		for range frames {
		}
	}()
}
