package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/id"
	"stockroom/internal/infrastructure/storage/postgres"
	"stockroom/pkg/logger"
)

func message() *postgres.OutboxMessage {
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "stock_entry",
		AggregateID:   id.New(),
		EventType:     "inventory.alert_raised",
		Payload:       []byte(`{"quantity":3}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestNotifier_LogOnly(t *testing.T) {
	n := New(logger.Nop(), "", time.Second)
	assert.NoError(t, n.Handle(context.Background(), message()))
}

func TestNotifier_PostsWebhook(t *testing.T) {
	var got Delivery
	var eventHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventHeader = r.Header.Get(HeaderEventType)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	msg := message()
	n := New(logger.Nop(), srv.URL, time.Second)
	require.NoError(t, n.Handle(context.Background(), msg))

	assert.Equal(t, "inventory.alert_raised", eventHeader)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.AggregateID, got.AggregateID)
	assert.JSONEq(t, `{"quantity":3}`, string(got.Payload))
}

func TestNotifier_FailingWebhookIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(logger.Nop(), srv.URL, time.Second)
	err := n.Handle(context.Background(), message())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
