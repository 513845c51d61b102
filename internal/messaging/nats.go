package messaging

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
)

// Publisher emits assessment lifecycle events so downstream consumers
// (alerting, portfolio dashboards) can react without polling.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to the NATS server.
func NewPublisher(cfg *config.NATSConfig, log *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Name("pegwatch"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{
		conn:   conn,
		logger: log.WithField("component", "nats"),
	}, nil
}

// PublishTier emits one completed tier for a symbol on
// assessment.tier<N>.<SYMBOL>. Publishing is fire-and-forget; a failure is
// logged, never propagated into the assessment pipeline.
func (p *Publisher) PublishTier(symbol string, tier int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to encode tier event")
		return
	}
	subject := fmt.Sprintf("assessment.tier%d.%s", tier, strings.ToUpper(symbol))
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish tier event")
	}
}

// PublishCompleted emits the final assessment on
// assessment.completed.<SYMBOL>.
func (p *Publisher) PublishCompleted(symbol string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to encode completion event")
		return
	}
	subject := "assessment.completed." + strings.ToUpper(symbol)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish completion event")
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.WithError(err).Warn("NATS drain failed")
	}
}
