package comanda

import (
	"context"
	"errors"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/seed"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	demoSeedApplication = "comanda_demo"

	// demoSeedMarker tags every seeded document so demo data can be cleared
	// without touching operator-created rows.
	demoSeedMarker = "demo-seed"
)

// DemoSeedMarker is the created_by value stamped on demo documents.
func DemoSeedMarker() string { return demoSeedMarker }

// DemoSeedIDs lists the tracker entries the demo seeds register.
func DemoSeedIDs() []string {
	return []string{"2026-08-01_demo_catalog_v1", "2026-08-01_demo_floorplan_v1"}
}

// DemoSeedingFunc returns a lifecycle OnStart hook that seeds demo catalog
// data and a small floor plan in the background.
func DemoSeedingFunc(seedCtx context.Context, db *mongo.Database, logger aqm.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo seeding completed successfully")
			}
		}()
		return nil
	}
}

// ApplyDemoSeeds writes demo menu items, categories and tables once; the
// tracker keeps re-runs idempotent.
func ApplyDemoSeeds(ctx context.Context, db *mongo.Database, logger aqm.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)

	seeds := []seed.Seed{
		{
			ID:          "2026-08-01_demo_catalog_v1",
			Description: "Create demo menu categories and items",
			Run: func(ctx context.Context) error {
				return seedDemoCatalog(ctx, db)
			},
		},
		{
			ID:          "2026-08-01_demo_floorplan_v1",
			Description: "Create a small demo floor plan",
			Run: func(ctx context.Context) error {
				return seedDemoTables(ctx, db)
			},
		},
	}

	logger.Info("Applying demo seeds")
	if err := seed.Apply(ctx, tracker, seeds, demoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo seeds applied successfully")
	return nil
}

func seedDemoCatalog(ctx context.Context, db *mongo.Database) error {
	categories := db.Collection("categories")
	items := db.Collection("menu_items")

	coffee := ProductCategory{ID: aqm.GenerateNewID(), Name: "Coffee", SortOrder: 1}
	bakery := ProductCategory{ID: aqm.GenerateNewID(), Name: "Bakery", SortOrder: 2}

	for _, c := range []ProductCategory{coffee, bakery} {
		doc := map[string]interface{}{
			"_id":        c.ID.String(),
			"name":       c.Name,
			"sort_order": c.SortOrder,
			"created_by": demoSeedMarker,
		}
		if _, err := categories.InsertOne(ctx, doc); err != nil {
			return err
		}
	}

	demoItems := []struct {
		name     string
		price    string
		category ProductCategory
	}{
		{"Espresso", "3.00", coffee},
		{"Flat White", "4.20", coffee},
		{"Filter of the Day", "3.50", coffee},
		{"Croissant", "2.50", bakery},
		{"Banana Bread", "3.80", bakery},
	}

	now := time.Now()
	for _, d := range demoItems {
		price, err := decimal.NewFromString(d.price)
		if err != nil {
			return err
		}
		item := NewMenuItem(d.name, price)
		doc := map[string]interface{}{
			"_id":         item.ID.String(),
			"category_id": d.category.ID.String(),
			"name":        item.Name,
			"price":       item.Price.String(),
			"available":   true,
			"created_by":  demoSeedMarker,
			"created_at":  now,
			"updated_at":  now,
		}
		if _, err := items.InsertOne(ctx, doc); err != nil {
			return err
		}
	}

	return nil
}

func seedDemoTables(ctx context.Context, db *mongo.Database) error {
	tables := db.Collection("tables")

	layout := []struct {
		number int
		name   string
		seats  int
		x, y   float64
	}{
		{1, "Window", 2, 40, 40},
		{2, "Center", 4, 240, 40},
		{3, "Patio", 4, 440, 40},
		{4, "Booth", 6, 240, 240},
	}

	for _, l := range layout {
		table := NewTable(l.number, l.name, l.seats)
		table.X = l.x
		table.Y = l.y
		table.BeforeCreate()
		doc := map[string]interface{}{
			"_id":        table.ID.String(),
			"number":     table.Number,
			"name":       table.Name,
			"seats":      table.Seats,
			"x":          table.X,
			"y":          table.Y,
			"w":          table.W,
			"h":          table.H,
			"active":     true,
			"created_by": demoSeedMarker,
			"created_at": table.CreatedAt,
			"updated_at": table.UpdatedAt,
		}
		if _, err := tables.InsertOne(ctx, doc); err != nil {
			return err
		}
	}

	return nil
}
