package comanda

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is a single cart entry. Lines are keyed by menu item: adding the
// same item again grows the quantity instead of appending a duplicate.
type OrderLine struct {
	MenuItemID   uuid.UUID       `json:"menu_item_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Instructions string          `json:"instructions,omitempty"`
}

// Subtotal is derived on demand, never stored on the line.
func (l OrderLine) Subtotal() decimal.Decimal {
	return LineSubtotal(l.Quantity, l.UnitPrice)
}

// Order is a comanda: a dine-in ticket bound to a table, or a takeaway
// ticket bound to none. Lines keep insertion order for display; totals do
// not depend on it.
type Order struct {
	ID           uuid.UUID       `json:"id"`
	Number       int64           `json:"number"`
	TableID      *uuid.UUID      `json:"table_id,omitempty"`
	Takeaway     bool            `json:"takeaway"`
	CustomerName string          `json:"customer_name,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Lines        []OrderLine     `json:"lines"`
	Status       Status          `json:"status"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	ServedAt     *time.Time      `json:"served_at,omitempty"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

// NewOrder builds a dine-in draft for the given table.
func NewOrder(tableID uuid.UUID) *Order {
	id := tableID
	return &Order{
		ID:      aqm.GenerateNewID(),
		TableID: &id,
		Status:  StatusPending,
	}
}

// NewTakeawayOrder builds a draft with no table reference.
func NewTakeawayOrder() *Order {
	return &Order{
		ID:       aqm.GenerateNewID(),
		Takeaway: true,
		Status:   StatusPending,
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = aqm.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// Editable reports whether the line set may still change. Paid and cancelled
// orders are frozen.
func (o *Order) Editable() bool {
	return !o.Status.Terminal()
}

// AddLine merges quantity into an existing line for the same menu item or
// appends a new one, capturing the unit price at this instant. A quantity
// below one is treated as one.
func (o *Order) AddLine(item *MenuItem, quantity int) error {
	if !o.Editable() {
		return ErrOrderImmutable
	}
	if quantity < 1 {
		quantity = 1
	}
	for i := range o.Lines {
		if o.Lines[i].MenuItemID == item.ID {
			o.Lines[i].Quantity += quantity
			o.BeforeUpdate()
			return nil
		}
	}
	o.Lines = append(o.Lines, OrderLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   quantity,
		UnitPrice:  item.Price,
	})
	o.BeforeUpdate()
	return nil
}

// SetQuantity updates the line for menuItemID; zero or negative removes it.
// A missing line is a silent no-op.
func (o *Order) SetQuantity(menuItemID uuid.UUID, quantity int) error {
	if !o.Editable() {
		return ErrOrderImmutable
	}
	for i := range o.Lines {
		if o.Lines[i].MenuItemID != menuItemID {
			continue
		}
		if quantity <= 0 {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
		} else {
			o.Lines[i].Quantity = quantity
		}
		o.BeforeUpdate()
		return nil
	}
	return nil
}

// SetInstructions attaches free text to an existing line. A missing line is
// a silent no-op.
func (o *Order) SetInstructions(menuItemID uuid.UUID, text string) error {
	if !o.Editable() {
		return ErrOrderImmutable
	}
	for i := range o.Lines {
		if o.Lines[i].MenuItemID == menuItemID {
			o.Lines[i].Instructions = text
			o.BeforeUpdate()
			return nil
		}
	}
	return nil
}

// Subtotal sums line subtotals. Recomputed on every call so it can never go
// stale against the line set.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Total is subtotal plus tax minus discount. Tax is supplied externally.
func (o *Order) Total() decimal.Decimal {
	return RoundMoney(o.Subtotal().Add(o.Tax).Sub(o.Discount))
}
