package event

import "time"

const (
	// OrdersTopic carries comanda lifecycle events.
	OrdersTopic = "comanda.orders"
	// TablesTopic carries floor-plan changes.
	TablesTopic = "comanda.tables"

	EventOrderPlaced        = "comanda.order.placed"
	EventOrderStatusChanged = "comanda.order.status_changed"
	EventTableAdded         = "comanda.table.added"
	EventTableRemoved       = "comanda.table.removed"
	EventTableMoved         = "comanda.table.moved"
)

// OrderEvent announces that a comanda was placed or changed status. Totals
// travel as decimal strings so consumers never parse floats.
type OrderEvent struct {
	EventType      string    `json:"event_type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    int64     `json:"order_number"`
	TableID        string    `json:"table_id,omitempty"`
	Takeaway       bool      `json:"takeaway"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          string    `json:"total"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TableEvent announces a floor-plan change: a table added, removed, or
// committed to a new position.
type TableEvent struct {
	EventType   string    `json:"event_type"`
	TableID     string    `json:"table_id"`
	TableNumber int       `json:"table_number"`
	X           float64   `json:"x,omitempty"`
	Y           float64   `json:"y,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
