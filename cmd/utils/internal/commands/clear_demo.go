package commands

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/comandaclub/comanda/internal/comanda"
)

var demoCollections = []string{"categories", "menu_items", "tables"}

// ClearDemo removes demo-seeded documents and their tracker entries so the
// seeds can be applied again.
func ClearDemo(ctx context.Context, config *aqm.Config, logger aqm.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, dbName, err := connect(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Connected to MongoDB")

	db := client.Database(dbName)
	marker := comanda.DemoSeedMarker()

	for _, name := range demoCollections {
		result, err := db.Collection(name).DeleteMany(ctx, bson.M{"created_by": marker})
		if err != nil {
			return fmt.Errorf("delete demo documents from %s: %w", name, err)
		}
		logger.Info("Deleted demo documents", "collection", name, "count", result.DeletedCount)
	}

	seeds := db.Collection("_seeds")
	for _, seedID := range comanda.DemoSeedIDs() {
		result, err := seeds.DeleteOne(ctx, bson.M{"_id": seedID})
		if err != nil {
			return fmt.Errorf("delete seed tracker %s: %w", seedID, err)
		}
		logger.Info("Cleared seed tracker", "seed_id", seedID, "deleted", result.DeletedCount)
	}

	return nil
}
