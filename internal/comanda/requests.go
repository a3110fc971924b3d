package comanda

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TableCreateRequest struct {
	Number int     `json:"number"`
	Name   string  `json:"name,omitempty"`
	Seats  int     `json:"seats,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

type TablePositionRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type OrderLineRequest struct {
	MenuItemID   uuid.UUID `json:"menu_item_id"`
	Quantity     int       `json:"quantity"`
	Instructions string    `json:"instructions,omitempty"`
}

type OrderCreateRequest struct {
	TableID      *uuid.UUID         `json:"table_id,omitempty"`
	Takeaway     bool               `json:"takeaway,omitempty"`
	CustomerName string             `json:"customer_name,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Tax          *decimal.Decimal   `json:"tax,omitempty"`
	Discount     *decimal.Decimal   `json:"discount,omitempty"`
	Lines        []OrderLineRequest `json:"lines"`
}

type LineUpdateRequest struct {
	Quantity     *int    `json:"quantity,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
}
