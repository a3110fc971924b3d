package comanda

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is the read model the engine consumes from the catalog. Unit
// prices are captured onto order lines at add time; a later price change
// never touches a placed line.
type MenuItem struct {
	ID         uuid.UUID       `json:"id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Available  bool            `json:"available"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

func (m *MenuItem) SetID(id uuid.UUID) {
	m.ID = id
}

func NewMenuItem(name string, price decimal.Decimal) *MenuItem {
	return &MenuItem{
		ID:        aqm.GenerateNewID(),
		Name:      name,
		Price:     price,
		Available: true,
	}
}

type ProductCategory struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
}

func (c *ProductCategory) GetID() uuid.UUID {
	return c.ID
}

func (c *ProductCategory) ResourceType() string {
	return "category"
}

func (c *ProductCategory) SetID(id uuid.UUID) {
	c.ID = id
}
