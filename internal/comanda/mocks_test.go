package comanda

import (
	"context"
	"sync"

	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	Published   [][]byte
	Topics      []string
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Topics = append(m.Topics, topic)
	m.Published = append(m.Published, msg)
	return nil
}

// MockOrderRepo is an in-memory OrderRepo for testing
type MockOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
	seq    int64

	CreateFunc       func(ctx context.Context, order *Order) error
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status Status, stamps StatusStamps) error
	SaveFunc         func(ctx context.Context, order *Order) error
	ListFunc         func(ctx context.Context, filter OrderFilter) ([]*Order, error)

	CreateCalls       int
	NextNumberCalls   int
	UpdateStatusCalls int
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, order *Order) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrderRepo) List(ctx context.Context, filter OrderFilter) ([]*Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Order
	for _, o := range m.orders {
		if !matchesFilter(o, filter) {
			continue
		}
		copied := *o
		result = append(result, &copied)
	}
	return result, nil
}

func matchesFilter(o *Order, filter OrderFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.TableID != nil {
		if o.TableID == nil || *o.TableID != *filter.TableID {
			return false
		}
	}
	if filter.Takeaway != nil && o.Takeaway != *filter.Takeaway {
		return false
	}
	if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && !o.CreatedAt.Before(filter.To) {
		return false
	}
	return true
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, stamps StatusStamps) error {
	m.mu.Lock()
	m.UpdateStatusCalls++
	m.mu.Unlock()
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, stamps)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil
	}
	order.Status = status
	order.ServedAt = stamps.ServedAt
	order.PaidAt = stamps.PaidAt
	return nil
}

func (m *MockOrderRepo) Save(ctx context.Context, order *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *MockOrderRepo) NextNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NextNumberCalls++
	m.seq++
	return m.seq, nil
}

// MockTableRepo is an in-memory TableRepo for testing
type MockTableRepo struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*Table

	CreateFunc         func(ctx context.Context, table *Table) error
	SaveFunc           func(ctx context.Context, table *Table) error
	UpsertPositionFunc func(ctx context.Context, id uuid.UUID, x, y float64) error

	UpsertPositionCalls int
}

func NewMockTableRepo() *MockTableRepo {
	return &MockTableRepo{
		tables: make(map[uuid.UUID]*Table),
	}
}

func (m *MockTableRepo) List(ctx context.Context) ([]*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Table
	for _, t := range m.tables {
		copied := *t
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockTableRepo) Create(ctx context.Context, table *Table) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *table
	m.tables[table.ID] = &stored
	return nil
}

func (m *MockTableRepo) Save(ctx context.Context, table *Table) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, table)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *table
	m.tables[table.ID] = &stored
	return nil
}

func (m *MockTableRepo) UpsertPosition(ctx context.Context, id uuid.UUID, x, y float64) error {
	m.mu.Lock()
	m.UpsertPositionCalls++
	m.mu.Unlock()
	if m.UpsertPositionFunc != nil {
		return m.UpsertPositionFunc(ctx, id, x, y)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok {
		t.X = x
		t.Y = y
	}
	return nil
}

// MockMenuRepo is an in-memory MenuRepo for testing
type MockMenuRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*MenuItem
}

func NewMockMenuRepo() *MockMenuRepo {
	return &MockMenuRepo{
		items: make(map[uuid.UUID]*MenuItem),
	}
}

func (m *MockMenuRepo) Add(item *MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

func (m *MockMenuRepo) ListItems(ctx context.Context) ([]*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*MenuItem
	for _, item := range m.items {
		result = append(result, item)
	}
	return result, nil
}

func (m *MockMenuRepo) GetItem(ctx context.Context, id uuid.UUID) (*MenuItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return item, nil
}

func (m *MockMenuRepo) ListCategories(ctx context.Context) ([]*ProductCategory, error) {
	return nil, nil
}
