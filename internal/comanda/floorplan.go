package comanda

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// FloorPlan holds the in-memory table layout for one register session and
// mediates drag repositioning. Persistence goes through the table repo on
// commit points only; UpdateDrag never touches storage.
type FloorPlan struct {
	mu     sync.RWMutex
	canvas Canvas
	tables map[uuid.UUID]*Table
	drags  map[uuid.UUID]*DragSession
	repo   TableRepo
	orders OrderRepo
	logger aqm.Logger
}

func NewFloorPlan(canvas Canvas, repo TableRepo, orders OrderRepo, logger aqm.Logger) *FloorPlan {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &FloorPlan{
		canvas: canvas,
		tables: make(map[uuid.UUID]*Table),
		drags:  make(map[uuid.UUID]*DragSession),
		repo:   repo,
		orders: orders,
		logger: logger,
	}
}

// Warm loads the persisted tables into memory. Positions are re-clamped so a
// canvas resize between runs cannot leave a table out of bounds.
func (p *FloorPlan) Warm(ctx context.Context) error {
	if p.repo == nil {
		return nil
	}
	tables, err := p.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot list tables: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range tables {
		t.MoveTo(Point{X: t.X, Y: t.Y}, p.canvas)
		p.tables[t.ID] = t
	}
	return nil
}

func (p *FloorPlan) Canvas() Canvas {
	return p.canvas
}

// Tables returns the active tables ordered by table number. The returned
// tables are detached copies; a concurrent drag cannot mutate them while a
// caller serializes or inspects the slice.
func (p *FloorPlan) Tables() []*Table {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var result []*Table
	for _, t := range p.tables {
		if t.Active {
			detached := *t
			result = append(result, &detached)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result
}

// Get returns a detached copy of the table, never the live plan entry.
func (p *FloorPlan) Get(id uuid.UUID) (*Table, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.tables[id]
	if !ok {
		return nil, false
	}
	detached := *t
	return &detached, true
}

// AddTable creates an active table at the given point, clamped to the
// canvas. The number must not collide with another active table. The table
// enters the in-memory plan only after the repo accepted it.
func (p *FloorPlan) AddTable(ctx context.Context, number int, name string, seats int, at Point) (*Table, error) {
	if number < 1 {
		return nil, fmt.Errorf("table number must be positive")
	}

	p.mu.Lock()
	for _, t := range p.tables {
		if t.Active && t.Number == number {
			p.mu.Unlock()
			return nil, ErrDuplicateTableNumber
		}
	}
	p.mu.Unlock()

	table := NewTable(number, name, seats)
	table.MoveTo(at, p.canvas)
	table.BeforeCreate()

	if p.repo != nil {
		if err := p.repo.Create(ctx, table); err != nil {
			return nil, fmt.Errorf("cannot create table: %w", err)
		}
	}

	// Re-check under the insert lock: another create may have claimed the
	// number while the repo call was in flight. The loser retires its
	// already persisted row.
	p.mu.Lock()
	for _, t := range p.tables {
		if t.Active && t.Number == number {
			p.mu.Unlock()
			p.retireTable(ctx, table)
			return nil, ErrDuplicateTableNumber
		}
	}
	p.tables[table.ID] = table
	p.mu.Unlock()

	detached := *table
	return &detached, nil
}

// retireTable deactivates a persisted table that lost a concurrent create
// race. Best effort: a failed save is logged and the row stays out of the
// in-memory plan either way.
func (p *FloorPlan) retireTable(ctx context.Context, table *Table) {
	if p.repo == nil {
		return
	}
	retired := *table
	retired.Deactivate()
	if err := p.repo.Save(ctx, &retired); err != nil {
		p.logger.Error("cannot retire duplicate table", "table_id", table.ID.String(), "error", err)
	}
}

// RemoveTable soft-deletes a table. It refuses while any non-terminal order
// still references the table.
func (p *FloorPlan) RemoveTable(ctx context.Context, id uuid.UUID) error {
	p.mu.RLock()
	table, ok := p.tables[id]
	p.mu.RUnlock()
	if !ok || !table.Active {
		return ErrTableNotFound
	}

	if p.orders != nil {
		open, err := p.orders.List(ctx, OrderFilter{TableID: &id, Statuses: OpenStatuses()})
		if err != nil {
			return fmt.Errorf("cannot check table orders: %w", err)
		}
		if len(open) > 0 {
			return ErrTableHasOpenOrders
		}
	}

	// Deactivate on a copy first so a failed save leaves the plan untouched.
	updated := *table
	updated.Deactivate()
	if p.repo != nil {
		if err := p.repo.Save(ctx, &updated); err != nil {
			return fmt.Errorf("cannot save table: %w", err)
		}
	}

	p.mu.Lock()
	*table = updated
	delete(p.drags, id)
	p.mu.Unlock()
	return nil
}

// BeginDrag starts a drag session for the table under the pointer. Only one
// session per table may be active; sessions for different tables are
// independent.
func (p *FloorPlan) BeginDrag(id uuid.UUID, pointer Point) (*DragSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	table, ok := p.tables[id]
	if !ok || !table.Active {
		return nil, ErrTableNotFound
	}
	if _, busy := p.drags[id]; busy {
		return nil, ErrDragInProgress
	}

	session := &DragSession{
		TableID: id,
		Offset:  Point{X: pointer.X - table.X, Y: pointer.Y - table.Y},
	}
	p.drags[id] = session
	return session, nil
}

// UpdateDrag moves the table under an active session to follow the pointer,
// clamped to the canvas. It is pure layout: idempotent for the same pointer
// position and free of persistence calls, so callers may fire it per
// pointer-move event.
func (p *FloorPlan) UpdateDrag(session *DragSession, pointer Point) (*Table, error) {
	if session == nil {
		return nil, fmt.Errorf("nil drag session")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drags[session.TableID] != session {
		return nil, fmt.Errorf("drag session is not active")
	}
	table := p.tables[session.TableID]
	table.MoveTo(Point{X: pointer.X - session.Offset.X, Y: pointer.Y - session.Offset.Y}, p.canvas)
	detached := *table
	return &detached, nil
}

// EndDrag closes the session and commits the final position. The in-memory
// position is kept even when the commit fails; the caller sees the error and
// the plan re-syncs on the next Warm.
func (p *FloorPlan) EndDrag(ctx context.Context, session *DragSession) error {
	if session == nil {
		return fmt.Errorf("nil drag session")
	}

	p.mu.Lock()
	if p.drags[session.TableID] != session {
		p.mu.Unlock()
		return fmt.Errorf("drag session is not active")
	}
	delete(p.drags, session.TableID)
	table := p.tables[session.TableID]
	x, y := table.X, table.Y
	p.mu.Unlock()

	if p.repo == nil {
		return nil
	}
	if err := p.repo.UpsertPosition(ctx, session.TableID, x, y); err != nil {
		p.logger.Error("cannot commit table position", "table_id", session.TableID.String(), "error", err)
		return fmt.Errorf("cannot commit table position: %w", err)
	}
	return nil
}

// CancelDrag releases the session without a commit. The table stays where
// the last UpdateDrag left it; nothing is half-persisted.
func (p *FloorPlan) CancelDrag(session *DragSession) {
	if session == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drags[session.TableID] == session {
		delete(p.drags, session.TableID)
	}
}

// MoveTable is a programmatic reposition: clamp, persist, then apply.
func (p *FloorPlan) MoveTable(ctx context.Context, id uuid.UUID, to Point) (*Table, error) {
	p.mu.RLock()
	table, ok := p.tables[id]
	p.mu.RUnlock()
	if !ok || !table.Active {
		return nil, ErrTableNotFound
	}

	moved := *table
	moved.MoveTo(to, p.canvas)

	if p.repo != nil {
		if err := p.repo.UpsertPosition(ctx, id, moved.X, moved.Y); err != nil {
			return nil, fmt.Errorf("cannot commit table position: %w", err)
		}
	}

	p.mu.Lock()
	*table = moved
	p.mu.Unlock()
	return &moved, nil
}
