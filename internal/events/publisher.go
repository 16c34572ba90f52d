package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Event subjects published by the service
const (
	SubjectImportCompleted = "storefront.import.completed"
	SubjectProductCreated  = "storefront.product.created"
	SubjectOrderPlaced     = "storefront.order.placed"
)

// Publisher emits domain events over NATS. The connection is optional: when
// NATS is not configured every publish is a logged no-op, so the import
// pipeline works identically with or without a broker.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Logger
}

// NewPublisher connects to NATS at natsURL. An empty URL disables publishing.
func NewPublisher(natsURL string, logger *logrus.Logger) *Publisher {
	if natsURL == "" {
		logger.Info("NATS not configured, event publishing disabled")
		return &Publisher{logger: logger}
	}

	conn, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		logger.WithError(err).Warn("Failed to connect to NATS, event publishing disabled")
		return &Publisher{logger: logger}
	}

	logger.WithField("url", natsURL).Info("Connected to NATS")
	return &Publisher{conn: conn, logger: logger}
}

// Publish sends a JSON-encoded event. Failures are logged, never returned:
// event delivery is best effort and must not affect request handling.
func (p *Publisher) Publish(subject string, payload interface{}) {
	if p.conn == nil {
		return
	}

	envelope := map[string]interface{}{
		"subject":   subject,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.WithField("subject", subject).WithError(err).Error("Failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithField("subject", subject).WithError(err).Error("Failed to publish event")
	}
}

// Close drains the connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
