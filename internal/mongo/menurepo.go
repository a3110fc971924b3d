package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/comandaclub/comanda/internal/comanda"
)

// MenuRepo reads the catalog. The engine never writes menu data; seeding is
// the only writer and goes through the collections directly.
type MenuRepo struct {
	items      *mongo.Collection
	categories *mongo.Collection
}

func NewMenuRepo(db *mongo.Database) *MenuRepo {
	return &MenuRepo{
		items:      db.Collection("menu_items"),
		categories: db.Collection("categories"),
	}
}

type menuItemDoc struct {
	ID         string    `bson:"_id"`
	CategoryID *string   `bson:"category_id,omitempty"`
	Name       string    `bson:"name"`
	Price      string    `bson:"price"`
	Available  bool      `bson:"available"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type categoryDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	SortOrder int    `bson:"sort_order"`
}

func fromMenuItemDoc(doc menuItemDoc) (*comanda.MenuItem, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid menu item id %s: %w", doc.ID, err)
	}

	price, err := parseMoney(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price on menu item %s: %w", doc.ID, err)
	}

	item := &comanda.MenuItem{
		ID:        id,
		Name:      doc.Name,
		Price:     price,
		Available: doc.Available,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.CategoryID != nil {
		categoryID, err := uuid.Parse(*doc.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %s: %w", *doc.CategoryID, err)
		}
		item.CategoryID = &categoryID
	}
	return item, nil
}

func (r *MenuRepo) ListItems(ctx context.Context) ([]*comanda.MenuItem, error) {
	cursor, err := r.items.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []menuItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}

	result := make([]*comanda.MenuItem, 0, len(docs))
	for _, doc := range docs {
		item, err := fromMenuItemDoc(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *MenuRepo) GetItem(ctx context.Context, id uuid.UUID) (*comanda.MenuItem, error) {
	var doc menuItemDoc
	err := r.items.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return fromMenuItemDoc(doc)
}

func (r *MenuRepo) ListCategories(ctx context.Context) ([]*comanda.ProductCategory, error) {
	cursor, err := r.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode categories: %w", err)
	}

	result := make([]*comanda.ProductCategory, 0, len(docs))
	for _, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %s: %w", doc.ID, err)
		}
		result = append(result, &comanda.ProductCategory{
			ID:        id,
			Name:      doc.Name,
			SortOrder: doc.SortOrder,
		})
	}
	return result, nil
}
