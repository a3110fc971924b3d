package comanda

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Range is a half-open reporting window [From, To). Hour buckets follow the
// location of From.
type Range struct {
	From time.Time
	To   time.Time
}

// DayRange covers the calendar day containing t in loc.
func DayRange(t time.Time, loc *time.Location) Range {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Range{From: from, To: from.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window. A zero bound is open:
// a from-only range matches everything at or after From, a to-only range
// everything before To.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

type PopularItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
}

// DashboardSnapshot is a derived value, never persisted.
type DashboardSnapshot struct {
	TotalOrders       int             `json:"total_orders"`
	PendingOrders     int             `json:"pending_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	PopularItems      []PopularItem   `json:"popular_items"`
	HourHistogram     [24]int         `json:"hour_histogram"`
}

const popularItemLimit = 5

// Aggregator folds an order set into a DashboardSnapshot. It is pure: no
// side effects, safe to call repeatedly with different snapshots of orders.
type Aggregator struct {
	// IncludeCancelledRevenue keeps cancelled orders in the revenue sum.
	// Off by default; a cancelled ticket is not money in the till.
	IncludeCancelledRevenue bool
}

func (a Aggregator) Aggregate(orders []*Order, r Range) DashboardSnapshot {
	snapshot := DashboardSnapshot{
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}

	loc := time.Local
	if !r.From.IsZero() {
		loc = r.From.Location()
	}

	type itemCount struct {
		item  PopularItem
		first int
	}
	counts := make(map[uuid.UUID]*itemCount)
	seen := 0

	for _, o := range orders {
		if !r.Contains(o.CreatedAt) {
			continue
		}
		snapshot.TotalOrders++
		if o.Status.InPreparation() {
			snapshot.PendingOrders++
		}
		if o.Status != StatusCancelled || a.IncludeCancelledRevenue {
			snapshot.Revenue = snapshot.Revenue.Add(o.Total())
		}
		snapshot.HourHistogram[o.CreatedAt.In(loc).Hour()]++

		for _, line := range o.Lines {
			c, ok := counts[line.MenuItemID]
			if !ok {
				c = &itemCount{
					item:  PopularItem{MenuItemID: line.MenuItemID, Name: line.Name},
					first: seen,
				}
				counts[line.MenuItemID] = c
				seen++
			}
			c.item.Quantity += line.Quantity
		}
	}

	snapshot.AverageOrderValue = SafeAverage(snapshot.Revenue, snapshot.TotalOrders)

	ranked := make([]*itemCount, 0, len(counts))
	for _, c := range counts {
		ranked = append(ranked, c)
	}
	// Ties keep first-encountered order, so sort on the insertion index
	// before the stable quantity sort.
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].first < ranked[j].first })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].item.Quantity > ranked[j].item.Quantity })

	limit := popularItemLimit
	if len(ranked) < limit {
		limit = len(ranked)
	}
	for _, c := range ranked[:limit] {
		snapshot.PopularItems = append(snapshot.PopularItems, c.item)
	}

	return snapshot
}
