package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/platform"
)

// Event types published to the record lifecycle topic.
const (
	EventOrderCreated     = "order.created"
	EventInvoiceCreated   = "invoice.created"
	EventRecordUpdated    = "record.updated"
	EventPlatformDegraded = "platform.degraded"
)

// Event is the envelope published for record lifecycle changes.
type Event struct {
	Type   string    `json:"type"`
	Kind   string    `json:"kind,omitempty"`
	ID     int64     `json:"id,omitempty"`
	Status string    `json:"status,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	At     time.Time `json:"occurred_at"`
}

func createdEventType(kind entity.Kind) string {
	if kind == entity.KindInvoice {
		return EventInvoiceCreated
	}
	return EventOrderCreated
}

func (s *Service) publishEvent(ctx context.Context, ev Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal record event", zap.String("type", ev.Type), zap.Error(err))
		}
		return
	}
	key := []byte(ev.Type)
	if ev.Kind != "" {
		key = []byte(fmt.Sprintf("%s-%d", ev.Kind, ev.ID))
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish record event", zap.String("type", ev.Type), zap.Error(err))
		}
	}
}

// observeMode publishes a degradation event the first time the backend is
// seen in mock mode after having been live or undecided.
func (s *Service) observeMode(ctx context.Context) {
	mode := s.backend.Mode()

	s.modeMu.Lock()
	prev := s.lastMode
	if mode == prev {
		s.modeMu.Unlock()
		return
	}
	s.lastMode = mode
	s.modeMu.Unlock()

	if mode != platform.ModeMock {
		return
	}
	if s.logger != nil {
		s.logger.Info("record backend degraded to mock mode", zap.String("previous", string(prev)))
	}
	s.publishEvent(ctx, Event{
		Type: EventPlatformDegraded,
		Mode: string(mode),
		At:   time.Now().UTC(),
	})
}
