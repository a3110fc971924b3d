package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/comandaclub/comanda/internal/comanda"
	"github.com/comandaclub/comanda/internal/mongo"
	"github.com/comandaclub/comanda/pkg"
)

const (
	appNamespace = "COMANDA"
	appName      = "comanda"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	if err := baseRepo.Start(ctx); err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)
	tableRepo := mongo.NewTableRepo(db)
	menuRepo := mongo.NewMenuRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	canvas := comanda.Canvas{
		Width:  configFloat(config, "floorplan.canvas.width", 800),
		Height: configFloat(config, "floorplan.canvas.height", 600),
	}

	plan := comanda.NewFloorPlan(canvas, tableRepo, orderRepo, logger)
	if err := plan.Warm(ctx); err != nil {
		log.Fatalf("%s(%s) cannot load floor plan: %v", appName, appVersion, err)
	}

	service := comanda.NewService(orderRepo, menuRepo, publisher, logger)

	subscriber, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	feed := comanda.NewActivityFeed(0)
	activitySub := comanda.NewActivitySubscriber(subscriber, feed, logger)

	hd := comanda.HandlerDeps{
		Service:   service,
		FloorPlan: plan,
		OrderRepo: orderRepo,
		MenuRepo:  menuRepo,
		Publisher: publisher,
		Activity:  feed,
	}
	handler := comanda.NewHandler(hd, config, logger)

	publisherLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	}
	subscriberLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error {
			return subscriber.Close()
		},
	}

	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks aqm.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled")
		seedHooks = aqm.LifecycleHooks{
			OnStart: comanda.DemoSeedingFunc(seedCtx, db, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		aqm.LifecycleHooks{OnStop: baseRepo.Stop},
		publisherLifecycle,
		activitySub,
		subscriberLifecycle,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func configFloat(config *aqm.Config, key string, def float64) float64 {
	raw := config.GetStringOrDef(key, "")
	if raw == "" {
		return def
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return value
}
