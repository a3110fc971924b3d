package comanda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/comandaclub/comanda/pkg/event"
)

const defaultActivityCapacity = 100

// ActivityEntry is one line of the service activity feed, built from the
// events the engine publishes.
type ActivityEntry struct {
	EventType   string    `json:"event_type"`
	Summary     string    `json:"summary"`
	OrderID     string    `json:"order_id,omitempty"`
	OrderNumber int64     `json:"order_number,omitempty"`
	TableID     string    `json:"table_id,omitempty"`
	TableNumber int       `json:"table_number,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ActivityFeed keeps the most recent entries in a bounded ring. Older
// entries fall off once capacity is reached.
type ActivityFeed struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	next    int
	full    bool
}

func NewActivityFeed(capacity int) *ActivityFeed {
	if capacity <= 0 {
		capacity = defaultActivityCapacity
	}
	return &ActivityFeed{entries: make([]ActivityEntry, capacity)}
}

func (f *ActivityFeed) Record(entry ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[f.next] = entry
	f.next++
	if f.next == len(f.entries) {
		f.next = 0
		f.full = true
	}
}

// Recent returns the stored entries, newest first.
func (f *ActivityFeed) Recent() []ActivityEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := f.next
	if f.full {
		count = len(f.entries)
	}
	result := make([]ActivityEntry, 0, count)
	for i := 1; i <= count; i++ {
		idx := f.next - i
		if idx < 0 {
			idx += len(f.entries)
		}
		result = append(result, f.entries[idx])
	}
	return result
}

// ActivitySubscriber consumes the engine's own order and table events and
// folds them into an ActivityFeed for the operator dashboard.
type ActivitySubscriber struct {
	subscriber events.Subscriber
	feed       *ActivityFeed
	logger     aqm.Logger
}

func NewActivitySubscriber(sub events.Subscriber, feed *ActivityFeed, logger aqm.Logger) *ActivitySubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &ActivitySubscriber{
		subscriber: sub,
		feed:       feed,
		logger:     logger,
	}
}

func (s *ActivitySubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting activity subscriber", "topics", []string{event.OrdersTopic, event.TablesTopic})
	if s.subscriber == nil {
		return fmt.Errorf("activity subscriber not configured")
	}
	if err := s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleOrderEvent); err != nil {
		return err
	}
	return s.subscriber.Subscribe(ctx, event.TablesTopic, s.handleTableEvent)
}

func (s *ActivitySubscriber) handleOrderEvent(ctx context.Context, msg []byte) error {
	var ev event.OrderEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.logger.Info("invalid order event", "error", err)
		return nil
	}
	if s.feed == nil {
		return nil
	}

	summary := fmt.Sprintf("order #%d %s", ev.OrderNumber, ev.Status)
	if ev.EventType == event.EventOrderPlaced {
		summary = fmt.Sprintf("order #%d placed", ev.OrderNumber)
	}
	s.feed.Record(ActivityEntry{
		EventType:   ev.EventType,
		Summary:     summary,
		OrderID:     ev.OrderID,
		OrderNumber: ev.OrderNumber,
		TableID:     ev.TableID,
		OccurredAt:  ev.OccurredAt,
	})
	s.logger.Debug("activity recorded", "event_type", ev.EventType, "order_id", ev.OrderID)
	return nil
}

func (s *ActivitySubscriber) handleTableEvent(ctx context.Context, msg []byte) error {
	var ev event.TableEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.logger.Info("invalid table event", "error", err)
		return nil
	}
	if s.feed == nil {
		return nil
	}

	var summary string
	switch ev.EventType {
	case event.EventTableAdded:
		summary = fmt.Sprintf("table %d added", ev.TableNumber)
	case event.EventTableRemoved:
		summary = fmt.Sprintf("table %d removed", ev.TableNumber)
	case event.EventTableMoved:
		summary = fmt.Sprintf("table %d moved to (%.0f, %.0f)", ev.TableNumber, ev.X, ev.Y)
	default:
		summary = fmt.Sprintf("table %d updated", ev.TableNumber)
	}
	s.feed.Record(ActivityEntry{
		EventType:   ev.EventType,
		Summary:     summary,
		TableID:     ev.TableID,
		TableNumber: ev.TableNumber,
		OccurredAt:  ev.OccurredAt,
	})
	s.logger.Debug("activity recorded", "event_type", ev.EventType, "table_id", ev.TableID)
	return nil
}
