package comanda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/event"
)

// Service drives the order lifecycle against the repository facade. Status
// and line mutations are staged on a copy, persisted, and only then applied
// to the caller's order, so a failed write never leaves local state ahead of
// storage.
type Service struct {
	orders    OrderRepo
	menu      MenuRepo
	publisher events.Publisher
	logger    aqm.Logger
	now       func() time.Time
}

func NewService(orders OrderRepo, menu MenuRepo, publisher events.Publisher, logger aqm.Logger) *Service {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Service{
		orders:    orders,
		menu:      menu,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDraft builds an in-memory pending order. Exactly one of tableID and
// takeaway must be set; a comanda is dine-in or takeaway, never both.
func (s *Service) CreateDraft(tableID *uuid.UUID, takeaway bool) (*Order, error) {
	hasTable := tableID != nil && *tableID != uuid.Nil
	if hasTable == takeaway {
		return nil, ErrServiceTypeConflict
	}
	if takeaway {
		return NewTakeawayOrder(), nil
	}
	return NewOrder(*tableID), nil
}

// Submit freezes the draft and persists header plus lines as one write. The
// empty-cart check fails fast, before any persistence call. The draft is
// mutated only after the repo accepted the order.
func (s *Service) Submit(ctx context.Context, order *Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	if len(order.Lines) == 0 {
		return ErrEmptyCart
	}

	number, err := s.orders.NextNumber(ctx)
	if err != nil {
		return fmt.Errorf("cannot assign order number: %w", err)
	}

	staged := *order
	staged.Number = number
	staged.Status = StatusPending
	staged.EnsureID()
	staged.CreatedAt = s.now()
	staged.UpdatedAt = staged.CreatedAt

	if err := s.orders.Create(ctx, &staged); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	*order = staged
	s.publishOrderEvent(ctx, order, event.EventOrderPlaced, "")
	return nil
}

// Advance moves the order to its linear successor, stamping ServedAt or
// PaidAt when those states are entered.
func (s *Service) Advance(ctx context.Context, order *Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	next, ok := order.Status.Next()
	if !ok {
		return ErrNoValidTransition
	}

	previous := order.Status
	staged := *order
	staged.Status = next
	staged.UpdatedAt = s.now()
	switch next {
	case StatusServed:
		at := s.now()
		staged.ServedAt = &at
	case StatusPaid:
		at := s.now()
		staged.PaidAt = &at
	}

	stamps := StatusStamps{ServedAt: staged.ServedAt, PaidAt: staged.PaidAt}
	if err := s.orders.UpdateStatus(ctx, staged.ID, next, stamps); err != nil {
		return fmt.Errorf("cannot update order status: %w", err)
	}

	*order = staged
	s.publishOrderEvent(ctx, order, event.EventOrderStatusChanged, string(previous))
	return nil
}

// Cancel is allowed from every state except paid and cancelled. No timestamp
// side effect beyond the status itself.
func (s *Service) Cancel(ctx context.Context, order *Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	if !order.Status.Cancellable() {
		return ErrNoValidTransition
	}

	previous := order.Status
	staged := *order
	staged.Status = StatusCancelled
	staged.UpdatedAt = s.now()

	if err := s.orders.UpdateStatus(ctx, staged.ID, StatusCancelled, StatusStamps{ServedAt: staged.ServedAt, PaidAt: staged.PaidAt}); err != nil {
		return fmt.Errorf("cannot update order status: %w", err)
	}

	*order = staged
	s.publishOrderEvent(ctx, order, event.EventOrderStatusChanged, string(previous))
	return nil
}

// SaveLines persists the current line set of an already placed, still
// editable order.
func (s *Service) SaveLines(ctx context.Context, order *Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}
	if !order.Editable() {
		return ErrOrderImmutable
	}
	if len(order.Lines) == 0 {
		return ErrEmptyCart
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return fmt.Errorf("cannot save order: %w", err)
	}
	return nil
}

// Dashboard lists orders in the range and folds them into a snapshot.
func (s *Service) Dashboard(ctx context.Context, agg Aggregator, r Range) (DashboardSnapshot, error) {
	orders, err := s.orders.List(ctx, OrderFilter{From: r.From, To: r.To})
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("cannot list orders: %w", err)
	}
	return agg.Aggregate(orders, r), nil
}

func (s *Service) publishOrderEvent(ctx context.Context, order *Order, eventType, previous string) {
	if s.publisher == nil {
		return
	}

	evt := event.OrderEvent{
		EventType:      eventType,
		OrderID:        order.ID.String(),
		OrderNumber:    order.Number,
		Takeaway:       order.Takeaway,
		Status:         string(order.Status),
		PreviousStatus: previous,
		Total:          order.Total().String(),
		OccurredAt:     s.now().UTC(),
	}
	if order.TableID != nil {
		evt.TableID = order.TableID.String()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot marshal order event", "error", err, "order_id", order.ID.String())
		return
	}
	if err := s.publisher.Publish(ctx, event.OrdersTopic, payload); err != nil {
		s.logger.Error("cannot publish order event", "error", err, "order_id", order.ID.String())
	}
}
