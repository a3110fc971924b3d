package comanda

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func testCanvas() Canvas {
	return Canvas{Width: 800, Height: 600}
}

func newTestPlan(t *testing.T) (*FloorPlan, *MockTableRepo, *MockOrderRepo) {
	t.Helper()
	tables := NewMockTableRepo()
	orders := NewMockOrderRepo()
	plan := NewFloorPlan(testCanvas(), tables, orders, nil)
	return plan, tables, orders
}

func TestTableMoveTo(t *testing.T) {
	canvas := testCanvas()
	tests := []struct {
		name      string
		target    Point
		expectedX float64
		expectedY float64
	}{
		{
			name:      "insideCanvasStays",
			target:    Point{X: 100, Y: 200},
			expectedX: 100,
			expectedY: 200,
		},
		{
			name:      "negativeClampsToOrigin",
			target:    Point{X: -50, Y: -10},
			expectedX: 0,
			expectedY: 0,
		},
		{
			name:      "overflowClampsToFarEdge",
			target:    Point{X: 5000, Y: 5000},
			expectedX: canvas.Width - defaultTableSize,
			expectedY: canvas.Height - defaultTableSize,
		},
		{
			name:      "edgeIsInclusive",
			target:    Point{X: canvas.Width - defaultTableSize, Y: canvas.Height - defaultTableSize},
			expectedX: canvas.Width - defaultTableSize,
			expectedY: canvas.Height - defaultTableSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(1, "", DefaultSeats)
			table.MoveTo(tt.target, canvas)
			if table.X != tt.expectedX || table.Y != tt.expectedY {
				t.Errorf("expected position (%v, %v), got (%v, %v)",
					tt.expectedX, tt.expectedY, table.X, table.Y)
			}
		})
	}
}

func TestTableMoveToTableLargerThanCanvas(t *testing.T) {
	table := NewTable(1, "", DefaultSeats)
	table.W = 1000
	table.H = 1000

	table.MoveTo(Point{X: 300, Y: 300}, testCanvas())

	if table.X != 0 || table.Y != 0 {
		t.Errorf("expected pin to origin, got (%v, %v)", table.X, table.Y)
	}
}

func TestFloorPlanAddTable(t *testing.T) {
	t.Run("addsAndClamps", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)

		table, err := plan.AddTable(context.Background(), 1, "Window", 2, Point{X: -20, Y: 9000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.X != 0 {
			t.Errorf("expected X clamped to 0, got %v", table.X)
		}
		if table.Y != testCanvas().Height-defaultTableSize {
			t.Errorf("expected Y clamped to far edge, got %v", table.Y)
		}
		if len(plan.Tables()) != 1 {
			t.Fatalf("expected 1 table in plan, got %d", len(plan.Tables()))
		}
	})

	t.Run("rejectsDuplicateNumber", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)

		if _, err := plan.AddTable(context.Background(), 7, "", DefaultSeats, Point{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := plan.AddTable(context.Background(), 7, "", DefaultSeats, Point{X: 200})
		if !errors.Is(err, ErrDuplicateTableNumber) {
			t.Errorf("expected ErrDuplicateTableNumber, got %v", err)
		}
	})

	t.Run("numberReusableAfterRemoval", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)

		table, err := plan.AddTable(context.Background(), 7, "", DefaultSeats, Point{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := plan.RemoveTable(context.Background(), table.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := plan.AddTable(context.Background(), 7, "", DefaultSeats, Point{}); err != nil {
			t.Errorf("expected number to be reusable, got %v", err)
		}
	})

	t.Run("concurrentCreateWithSameNumberLosesRace", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)

		// A second create for the same number completes while the first
		// one's repo write is still in flight.
		var winner *Table
		var loserID uuid.UUID
		tables.CreateFunc = func(ctx context.Context, table *Table) error {
			tables.CreateFunc = nil
			inner, err := plan.AddTable(ctx, 7, "", DefaultSeats, Point{X: 200})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			winner = inner
			loserID = table.ID
			return tables.Create(ctx, table)
		}

		_, err := plan.AddTable(context.Background(), 7, "", DefaultSeats, Point{})
		if !errors.Is(err, ErrDuplicateTableNumber) {
			t.Fatalf("expected ErrDuplicateTableNumber, got %v", err)
		}

		active := plan.Tables()
		if len(active) != 1 {
			t.Fatalf("expected 1 active table, got %d", len(active))
		}
		if active[0].ID != winner.ID {
			t.Error("expected the winning table to stay in the plan")
		}

		stored, ok := tables.tables[loserID]
		if !ok {
			t.Fatal("expected the losing row to stay persisted")
		}
		if stored.Active {
			t.Error("expected the losing row to be deactivated")
		}
	})

	t.Run("repoFailureKeepsPlanUntouched", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		tables.CreateFunc = func(ctx context.Context, table *Table) error {
			return errors.New("write failed")
		}

		if _, err := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{}); err == nil {
			t.Fatal("expected error")
		}
		if len(plan.Tables()) != 0 {
			t.Errorf("expected empty plan, got %d tables", len(plan.Tables()))
		}
	})
}

func TestFloorPlanRemoveTable(t *testing.T) {
	t.Run("refusesWhileOrdersOpen", func(t *testing.T) {
		plan, _, orders := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{})

		open := NewOrder(table.ID)
		open.Status = StatusPreparing
		orders.orders[open.ID] = open

		err := plan.RemoveTable(context.Background(), table.ID)
		if !errors.Is(err, ErrTableHasOpenOrders) {
			t.Errorf("expected ErrTableHasOpenOrders, got %v", err)
		}
		if got, _ := plan.Get(table.ID); !got.Active {
			t.Error("expected table to remain active")
		}
	})

	t.Run("allowsWhenOrdersClosed", func(t *testing.T) {
		plan, _, orders := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{})

		closed := NewOrder(table.ID)
		closed.Status = StatusPaid
		orders.orders[closed.ID] = closed

		if err := plan.RemoveTable(context.Background(), table.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(plan.Tables()) != 0 {
			t.Error("expected no active tables")
		}
	})

	t.Run("missingTable", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)
		err := plan.RemoveTable(context.Background(), uuid.New())
		if !errors.Is(err, ErrTableNotFound) {
			t.Errorf("expected ErrTableNotFound, got %v", err)
		}
	})
}

func TestFloorPlanDrag(t *testing.T) {
	t.Run("lifecycle", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})

		session, err := plan.BeginDrag(table.ID, Point{X: 110, Y: 120})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if session.Offset.X != 10 || session.Offset.Y != 20 {
			t.Errorf("expected offset (10, 20), got (%v, %v)", session.Offset.X, session.Offset.Y)
		}

		moved, err := plan.UpdateDrag(session, Point{X: 310, Y: 420})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.X != 300 || moved.Y != 400 {
			t.Errorf("expected position (300, 400), got (%v, %v)", moved.X, moved.Y)
		}
		if tables.UpsertPositionCalls != 0 {
			t.Error("UpdateDrag must not persist")
		}

		if err := plan.EndDrag(context.Background(), session); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tables.UpsertPositionCalls != 1 {
			t.Errorf("expected 1 position commit, got %d", tables.UpsertPositionCalls)
		}
	})

	t.Run("updateClampsToCanvas", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})
		session, _ := plan.BeginDrag(table.ID, Point{X: 100, Y: 100})

		moved, err := plan.UpdateDrag(session, Point{X: -500, Y: 9000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.X != 0 || moved.Y != testCanvas().Height-defaultTableSize {
			t.Errorf("expected clamped position, got (%v, %v)", moved.X, moved.Y)
		}
	})

	t.Run("secondDragOnSameTableRejected", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{})

		if _, err := plan.BeginDrag(table.ID, Point{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := plan.BeginDrag(table.ID, Point{})
		if !errors.Is(err, ErrDragInProgress) {
			t.Errorf("expected ErrDragInProgress, got %v", err)
		}
	})

	t.Run("dragsOnDifferentTablesAreIndependent", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)
		a, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{})
		b, _ := plan.AddTable(context.Background(), 2, "", DefaultSeats, Point{X: 200})

		if _, err := plan.BeginDrag(a.ID, Point{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := plan.BeginDrag(b.ID, Point{X: 200}); err != nil {
			t.Errorf("expected independent session, got %v", err)
		}
	})

	t.Run("cancelKeepsLastPositionWithoutCommit", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})
		session, _ := plan.BeginDrag(table.ID, Point{X: 100, Y: 100})

		plan.UpdateDrag(session, Point{X: 300, Y: 300})
		plan.CancelDrag(session)

		got, _ := plan.Get(table.ID)
		if got.X != 300 || got.Y != 300 {
			t.Errorf("expected position (300, 300), got (%v, %v)", got.X, got.Y)
		}
		if tables.UpsertPositionCalls != 0 {
			t.Error("cancel must not persist")
		}

		// Session is released, so a new drag may start.
		if _, err := plan.BeginDrag(table.ID, Point{}); err != nil {
			t.Errorf("expected new drag after cancel, got %v", err)
		}
	})

	t.Run("endDragCommitFailureKeepsMemoryPosition", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})
		session, _ := plan.BeginDrag(table.ID, Point{X: 100, Y: 100})
		plan.UpdateDrag(session, Point{X: 250, Y: 250})

		tables.UpsertPositionFunc = func(ctx context.Context, id uuid.UUID, x, y float64) error {
			return errors.New("write failed")
		}

		if err := plan.EndDrag(context.Background(), session); err == nil {
			t.Fatal("expected error")
		}
		got, _ := plan.Get(table.ID)
		if got.X != 250 || got.Y != 250 {
			t.Errorf("expected position kept at (250, 250), got (%v, %v)", got.X, got.Y)
		}
	})

	t.Run("staleSessionRejected", func(t *testing.T) {
		plan, _, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{})
		session, _ := plan.BeginDrag(table.ID, Point{})
		plan.CancelDrag(session)

		if _, err := plan.UpdateDrag(session, Point{X: 10}); err == nil {
			t.Error("expected error for released session")
		}
		if err := plan.EndDrag(context.Background(), session); err == nil {
			t.Error("expected error for released session")
		}
	})
}

func TestFloorPlanMoveTable(t *testing.T) {
	t.Run("persistsThenApplies", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})

		moved, err := plan.MoveTable(context.Background(), table.ID, Point{X: 9000, Y: -5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if moved.X != testCanvas().Width-defaultTableSize || moved.Y != 0 {
			t.Errorf("expected clamped position, got (%v, %v)", moved.X, moved.Y)
		}
		if tables.UpsertPositionCalls != 1 {
			t.Errorf("expected 1 position commit, got %d", tables.UpsertPositionCalls)
		}
	})

	t.Run("persistFailureLeavesPositionUnchanged", func(t *testing.T) {
		plan, tables, _ := newTestPlan(t)
		table, _ := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})
		tables.UpsertPositionFunc = func(ctx context.Context, id uuid.UUID, x, y float64) error {
			return errors.New("write failed")
		}

		if _, err := plan.MoveTable(context.Background(), table.ID, Point{X: 300, Y: 300}); err == nil {
			t.Fatal("expected error")
		}
		got, _ := plan.Get(table.ID)
		if got.X != 100 || got.Y != 100 {
			t.Errorf("expected position unchanged at (100, 100), got (%v, %v)", got.X, got.Y)
		}
	})
}

func TestFloorPlanWarm(t *testing.T) {
	tables := NewMockTableRepo()
	stored := NewTable(1, "", DefaultSeats)
	stored.X = 5000
	stored.Y = -20
	tables.tables[stored.ID] = stored

	plan := NewFloorPlan(testCanvas(), tables, NewMockOrderRepo(), nil)
	if err := plan.Warm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := plan.Get(stored.ID)
	if !ok {
		t.Fatal("expected table to be loaded")
	}
	if got.X != testCanvas().Width-defaultTableSize || got.Y != 0 {
		t.Errorf("expected re-clamped position, got (%v, %v)", got.X, got.Y)
	}
}

func TestFloorPlanReturnsDetachedTables(t *testing.T) {
	plan, _, _ := newTestPlan(t)
	added, err := plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	added.X = 999
	if got, _ := plan.Get(added.ID); got.X != 100 {
		t.Errorf("mutating AddTable result changed the plan: X = %v", got.X)
	}

	listed := plan.Tables()[0]
	listed.Y = 999
	if got, _ := plan.Get(added.ID); got.Y != 100 {
		t.Errorf("mutating Tables result changed the plan: Y = %v", got.Y)
	}

	fetched, _ := plan.Get(added.ID)
	fetched.X = 999
	if got, _ := plan.Get(added.ID); got.X != 100 {
		t.Errorf("mutating Get result changed the plan: X = %v", got.X)
	}

	session, _ := plan.BeginDrag(added.ID, Point{X: 100, Y: 100})
	dragged, _ := plan.UpdateDrag(session, Point{X: 300, Y: 300})
	dragged.X = 999
	if got, _ := plan.Get(added.ID); got.X != 300 {
		t.Errorf("mutating UpdateDrag result changed the plan: X = %v", got.X)
	}
	plan.CancelDrag(session)

	moved, err := plan.MoveTable(context.Background(), added.ID, Point{X: 200, Y: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moved.X = 999
	if got, _ := plan.Get(added.ID); got.X != 200 {
		t.Errorf("mutating MoveTable result changed the plan: X = %v", got.X)
	}
}

func TestFloorPlanTablesSortedByNumber(t *testing.T) {
	plan, _, _ := newTestPlan(t)
	plan.AddTable(context.Background(), 3, "", DefaultSeats, Point{})
	plan.AddTable(context.Background(), 1, "", DefaultSeats, Point{X: 100})
	plan.AddTable(context.Background(), 2, "", DefaultSeats, Point{X: 200})

	got := plan.Tables()
	if len(got) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(got))
	}
	for i, expected := range []int{1, 2, 3} {
		if got[i].Number != expected {
			t.Errorf("position %d: expected number %d, got %d", i, expected, got[i].Number)
		}
	}
}
