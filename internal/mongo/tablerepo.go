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

type TableRepo struct {
	collection *mongo.Collection
}

func NewTableRepo(db *mongo.Database) *TableRepo {
	return &TableRepo{
		collection: db.Collection("tables"),
	}
}

type tableDoc struct {
	ID        string    `bson:"_id"`
	Number    int       `bson:"number"`
	Name      string    `bson:"name,omitempty"`
	Seats     int       `bson:"seats"`
	X         float64   `bson:"x"`
	Y         float64   `bson:"y"`
	W         float64   `bson:"w"`
	H         float64   `bson:"h"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toTableDoc(table *comanda.Table) tableDoc {
	return tableDoc{
		ID:        table.ID.String(),
		Number:    table.Number,
		Name:      table.Name,
		Seats:     table.Seats,
		X:         table.X,
		Y:         table.Y,
		W:         table.W,
		H:         table.H,
		Active:    table.Active,
		CreatedAt: table.CreatedAt,
		UpdatedAt: table.UpdatedAt,
	}
}

func fromTableDoc(doc tableDoc) (*comanda.Table, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid table id %s: %w", doc.ID, err)
	}
	return &comanda.Table{
		ID:        id,
		Number:    doc.Number,
		Name:      doc.Name,
		Seats:     doc.Seats,
		X:         doc.X,
		Y:         doc.Y,
		W:         doc.W,
		H:         doc.H,
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (r *TableRepo) List(ctx context.Context) ([]*comanda.Table, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []tableDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}

	result := make([]*comanda.Table, 0, len(docs))
	for _, doc := range docs {
		table, err := fromTableDoc(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, table)
	}
	return result, nil
}

func (r *TableRepo) Create(ctx context.Context, table *comanda.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	if _, err := r.collection.InsertOne(ctx, toTableDoc(table)); err != nil {
		return fmt.Errorf("cannot create table: %w", err)
	}

	return nil
}

func (r *TableRepo) Save(ctx context.Context, table *comanda.Table) error {
	if table == nil {
		return fmt.Errorf("table is nil")
	}

	doc := toTableDoc(table)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("cannot update table: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("table not found")
	}
	return nil
}

func (r *TableRepo) UpsertPosition(ctx context.Context, id uuid.UUID, x, y float64) error {
	update := bson.M{"$set": bson.M{
		"x":          x,
		"y":          y,
		"updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("cannot upsert table position: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("table not found")
	}
	return nil
}
