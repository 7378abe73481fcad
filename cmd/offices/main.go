package main

import (
	"deskbook/internal/offices/handler"
	"deskbook/internal/offices/repository"
	"deskbook/internal/offices/service"
	"deskbook/internal/offices/validator"
	"deskbook/pkg/app"
	"deskbook/pkg/auth"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	"deskbook/pkg/config"
)

const ServiceName = "offices"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("Session secret is not configured", "env", config.EnvSessionSecret)
	}
	cfg.SetMongo()

	cfg.Log.Info("Starting Offices service")

	changes, err := cdc.NewPublisher(cdc_config.Load(), cdc.TableOffices, ServiceName, cdc.TopicForTable(cdc.TableOffices)+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to create change feed publisher", "error", err)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	officeService := initServices(cfg, changes)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewOfficeHandler(officeService, sessions, cfg.Log))
	serverApp.OnShutdown(changes.Close)
	serverApp.Run()
}

func initServices(cfg *config.Config, changes *cdc.Publisher) service.OfficeService {
	officeValidator := validator.NewOfficeValidator(cfg.Log)
	officeRepo := repository.NewMongoOfficeRepository(cfg)

	officeService := service.NewOfficeService(
		officeRepo,
		officeValidator,
		changes,
		cfg,
	)

	cfg.Log.Info("Office service initialized", "database", cfg.MongoDatabaseName)
	return officeService
}
