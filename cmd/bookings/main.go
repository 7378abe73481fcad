package main

import (
	"context"
	"errors"

	"deskbook/internal/bookings/feed"
	"deskbook/internal/bookings/handler"
	"deskbook/internal/bookings/repository"
	"deskbook/internal/bookings/service"
	"deskbook/internal/bookings/validator"
	officesrepo "deskbook/internal/offices/repository"
	"deskbook/pkg/app"
	"deskbook/pkg/auth"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	"deskbook/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("Session secret is not configured", "env", config.EnvSessionSecret)
	}
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")

	feedCfg := cdc_config.Load()
	changes, err := cdc.NewPublisher(feedCfg, cdc.TableBookings, ServiceName, cdc.TopicForTable(cdc.TableBookings)+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to create change feed publisher", "error", err)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	requesterService, ownerService := initServices(cfg, changes)

	requesterFeed, err := feed.NewRequesterFeed(feedCfg, requesterService, ServiceName+"-requester-view", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create requester feed", "error", err)
	}
	ownerFeed, err := feed.NewOwnerFeed(feedCfg, ownerService, ServiceName+"-owner-view", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create owner feed", "error", err)
	}

	feedCtx, stopFeeds := context.WithCancel(context.Background())
	go runFeed(cfg, "requester", func() error { return requesterFeed.Start(feedCtx) })
	go runFeed(cfg, "owner", func() error { return ownerFeed.Start(feedCtx) })

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(requesterService, ownerService, sessions, cfg.Log))
	serverApp.OnShutdown(func() error {
		stopFeeds()
		return nil
	})
	serverApp.OnShutdown(requesterFeed.Close)
	serverApp.OnShutdown(ownerFeed.Close)
	serverApp.OnShutdown(changes.Close)
	serverApp.Run()
}

func runFeed(cfg *config.Config, name string, start func() error) {
	if err := start(); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Booking feed stopped", "feed", name, "error", err)
	}
}

func initServices(cfg *config.Config, changes *cdc.Publisher) (service.RequesterService, service.OwnerService) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	officeRepo := officesrepo.NewMongoOfficeRepository(cfg)

	requesterService := service.NewRequesterService(
		bookingRepo,
		officeRepo,
		bookingValidator,
		changes,
		cfg,
	)
	ownerService := service.NewOwnerService(
		bookingRepo,
		officeRepo,
		bookingValidator,
		changes,
		cfg,
	)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)
	return requesterService, ownerService
}
