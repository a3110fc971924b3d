package comanda

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const DefaultSeats = 4

// Canvas is the fixed floor-plan drawing area. It is configuration handed to
// the floor plan at construction, never read from ambient state.
type Canvas struct {
	Width  float64
	Height float64
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Table is a physical table placed on the floor-plan canvas. Position always
// satisfies 0 <= X <= canvas.Width-W and 0 <= Y <= canvas.Height-H.
type Table struct {
	ID        uuid.UUID `json:"id"`
	Number    int       `json:"number"`
	Name      string    `json:"name,omitempty"`
	Seats     int       `json:"seats"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	W         float64   `json:"w"`
	H         float64   `json:"h"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTable(number int, name string, seats int) *Table {
	if seats < 1 {
		seats = DefaultSeats
	}
	return &Table{
		ID:     aqm.GenerateNewID(),
		Number: number,
		Name:   name,
		Seats:  seats,
		W:      defaultTableSize,
		H:      defaultTableSize,
		Active: true,
	}
}

const defaultTableSize = 80

func (t *Table) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = aqm.GenerateNewID()
	}
}

func (t *Table) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Table) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

// MoveTo places the table at p, clamped to the canvas.
func (t *Table) MoveTo(p Point, canvas Canvas) {
	t.X = clamp(p.X, 0, canvas.Width-t.W)
	t.Y = clamp(p.Y, 0, canvas.Height-t.H)
	t.UpdatedAt = time.Now()
}

// Deactivate soft-deletes the table. Historical orders keep their reference.
func (t *Table) Deactivate() {
	t.Active = false
	t.UpdatedAt = time.Now()
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DragSession is the interactive period between pointer-down and pointer-up
// on a table. The offset keeps the table from jumping to the pointer.
type DragSession struct {
	TableID uuid.UUID
	Offset  Point
}
