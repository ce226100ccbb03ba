package records

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/messaging"
	recordsvc "github.com/lakedesk/lakedesk/internal/service/records"
)

func newHandler(t *testing.T) (messaging.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "records.events"}}}

	reg := NewRecordEventHandler(zap.New(core), cfg)
	require.Equal(t, "records.events", reg.Topic)
	return reg.Handler, logs
}

func deliver(t *testing.T, handler messaging.Handler, ev recordsvc.Event) error {
	t.Helper()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return handler(context.Background(), messaging.Message{Topic: "records.events", Value: raw})
}

func TestHandleCreatedEvent(t *testing.T) {
	handler, logs := newHandler(t)

	err := deliver(t, handler, recordsvc.Event{Type: recordsvc.EventOrderCreated, Kind: "orders", ID: 4, Status: "Pending"})
	require.NoError(t, err)

	entries := logs.FilterMessage("record created event processed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestHandleUpdatedEvent(t *testing.T) {
	handler, logs := newHandler(t)

	err := deliver(t, handler, recordsvc.Event{Type: recordsvc.EventRecordUpdated, Kind: "invoices", ID: 2, Status: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("record updated event processed").Len())
}

func TestHandleDegradedEventWarns(t *testing.T) {
	handler, logs := newHandler(t)

	err := deliver(t, handler, recordsvc.Event{Type: recordsvc.EventPlatformDegraded, Mode: "mock"})
	require.NoError(t, err)

	entries := logs.FilterMessage("platform degraded to mock mode").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestHandleUnknownEventType(t *testing.T) {
	handler, logs := newHandler(t)

	err := deliver(t, handler, recordsvc.Event{Type: "order.deleted"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("unknown record event type").Len())
}

func TestHandleMalformedPayload(t *testing.T) {
	handler, logs := newHandler(t)

	err := handler(context.Background(), messaging.Message{Topic: "records.events", Value: []byte("{broken")})
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to decode record event").Len())
}
