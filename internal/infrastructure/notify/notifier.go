// Package notify delivers outbox events: every event is logged, and
// posted to a webhook when one is configured.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stockroom/internal/core/id"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

// HeaderEventType carries the event type on webhook requests.
const HeaderEventType = "X-Stockroom-Event"

// Notifier implements postgres.OutboxHandler.
type Notifier struct {
	log        *logger.Logger
	webhookURL string
	client     *http.Client
}

var _ postgres.OutboxHandler = (*Notifier)(nil)

// New creates a notifier. An empty webhookURL logs only.
func New(log *logger.Logger, webhookURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		log:        log.WithComponent("notifier"),
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Delivery is the webhook body.
type Delivery struct {
	ID            id.ID           `json:"id"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   id.ID           `json:"aggregateId"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Handle logs msg and posts it to the webhook. A non-2xx answer is an
// error, so the relay retries the message.
func (n *Notifier) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	n.log.WithContext(ctx).Infow("event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"attempt", msg.Attempts+1,
	)
	if n.webhookURL == "" {
		return nil
	}

	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	body, err := json.Marshal(Delivery{
		ID:            msg.ID,
		EventType:     msg.EventType,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Payload:       payload,
		CreatedAt:     msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, msg.EventType)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook answered %d", resp.StatusCode)
	}
	return nil
}
