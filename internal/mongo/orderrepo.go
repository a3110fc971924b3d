package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comandaclub/comanda/internal/comanda"
)

// OrderRepo persists comandas. The full line set is embedded in the order
// document so a create is atomic without a multi-document transaction.
// Money travels as decimal strings.
type OrderRepo struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
		counters:   db.Collection("counters"),
	}
}

type orderLineDoc struct {
	MenuItemID   string `bson:"menu_item_id"`
	Name         string `bson:"name"`
	Quantity     int    `bson:"quantity"`
	UnitPrice    string `bson:"unit_price"`
	Instructions string `bson:"instructions,omitempty"`
}

type orderDoc struct {
	ID           string         `bson:"_id"`
	Number       int64          `bson:"number"`
	TableID      *string        `bson:"table_id,omitempty"`
	Takeaway     bool           `bson:"takeaway"`
	CustomerName string         `bson:"customer_name,omitempty"`
	Notes        string         `bson:"notes,omitempty"`
	Lines        []orderLineDoc `bson:"lines"`
	Status       string         `bson:"status"`
	Subtotal     string         `bson:"subtotal"`
	Tax          string         `bson:"tax"`
	Discount     string         `bson:"discount"`
	Total        string         `bson:"total"`
	ServedAt     *time.Time     `bson:"served_at,omitempty"`
	PaidAt       *time.Time     `bson:"paid_at,omitempty"`
	CreatedAt    time.Time      `bson:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at"`
}

func toOrderDoc(order *comanda.Order) orderDoc {
	doc := orderDoc{
		ID:           order.ID.String(),
		Number:       order.Number,
		Takeaway:     order.Takeaway,
		CustomerName: order.CustomerName,
		Notes:        order.Notes,
		Status:       string(order.Status),
		Subtotal:     order.Subtotal().String(),
		Tax:          order.Tax.String(),
		Discount:     order.Discount.String(),
		Total:        order.Total().String(),
		ServedAt:     order.ServedAt,
		PaidAt:       order.PaidAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.TableID != nil {
		id := order.TableID.String()
		doc.TableID = &id
	}
	for _, line := range order.Lines {
		doc.Lines = append(doc.Lines, orderLineDoc{
			MenuItemID:   line.MenuItemID.String(),
			Name:         line.Name,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice.String(),
			Instructions: line.Instructions,
		})
	}
	return doc
}

func fromOrderDoc(doc orderDoc) (*comanda.Order, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id %s: %w", doc.ID, err)
	}

	order := &comanda.Order{
		ID:           id,
		Number:       doc.Number,
		Takeaway:     doc.Takeaway,
		CustomerName: doc.CustomerName,
		Notes:        doc.Notes,
		Status:       comanda.Status(doc.Status),
		ServedAt:     doc.ServedAt,
		PaidAt:       doc.PaidAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	if doc.TableID != nil {
		tableID, err := uuid.Parse(*doc.TableID)
		if err != nil {
			return nil, fmt.Errorf("invalid table id %s: %w", *doc.TableID, err)
		}
		order.TableID = &tableID
	}

	if order.Tax, err = parseMoney(doc.Tax); err != nil {
		return nil, fmt.Errorf("invalid tax on order %s: %w", doc.ID, err)
	}
	if order.Discount, err = parseMoney(doc.Discount); err != nil {
		return nil, fmt.Errorf("invalid discount on order %s: %w", doc.ID, err)
	}

	for _, line := range doc.Lines {
		menuItemID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid menu item id %s: %w", line.MenuItemID, err)
		}
		unitPrice, err := parseMoney(line.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price on order %s: %w", doc.ID, err)
		}
		order.Lines = append(order.Lines, comanda.OrderLine{
			MenuItemID:   menuItemID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			UnitPrice:    unitPrice,
			Instructions: line.Instructions,
		})
	}

	return order, nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (r *OrderRepo) Create(ctx context.Context, order *comanda.Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, toOrderDoc(order)); err != nil {
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*comanda.Order, error) {
	var doc orderDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return fromOrderDoc(doc)
}

func (r *OrderRepo) List(ctx context.Context, filter comanda.OrderFilter) ([]*comanda.Order, error) {
	cursor, err := r.collection.Find(ctx, buildOrderQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	result := make([]*comanda.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := fromOrderDoc(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, nil
}

func buildOrderQuery(filter comanda.OrderFilter) bson.M {
	query := bson.M{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query["status"] = bson.M{"$in": statuses}
	}
	if filter.TableID != nil {
		query["table_id"] = filter.TableID.String()
	}
	if filter.Takeaway != nil {
		query["takeaway"] = *filter.Takeaway
	}

	created := bson.M{}
	if !filter.From.IsZero() {
		created["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		created["$lt"] = filter.To
	}
	if len(created) > 0 {
		query["created_at"] = created
	}

	return query
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status comanda.Status, stamps comanda.StatusStamps) error {
	set := bson.M{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if stamps.ServedAt != nil {
		set["served_at"] = *stamps.ServedAt
	}
	if stamps.PaidAt != nil {
		set["paid_at"] = *stamps.PaidAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("cannot update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

func (r *OrderRepo) Save(ctx context.Context, order *comanda.Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}

	doc := toOrderDoc(order)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

// NextNumber increments the order counter and returns the new value. The
// upsert makes the first call seed the counter document.
func (r *OrderRepo) NextNumber(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": "orders"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("cannot assign order number: %w", err)
	}

	return counter.Seq, nil
}
