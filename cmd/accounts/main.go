package main

import (
	"deskbook/internal/accounts/handler"
	"deskbook/internal/accounts/repository"
	"deskbook/internal/accounts/service"
	"deskbook/internal/accounts/validator"
	"deskbook/pkg/app"
	"deskbook/pkg/auth"
	"deskbook/pkg/cdc"
	cdc_config "deskbook/pkg/cdc/config"
	"deskbook/pkg/config"
)

const ServiceName = "accounts"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.SessionSecret == "" {
		cfg.Log.Fatal("Session secret is not configured", "env", config.EnvSessionSecret)
	}
	cfg.SetMongo()

	cfg.Log.Info("Starting Accounts service")

	changes, err := cdc.NewPublisher(cdc_config.Load(), cdc.TableUsers, ServiceName, cdc.TopicForTable(cdc.TableUsers)+".dlq")
	if err != nil {
		cfg.Log.Fatal("Failed to create change feed publisher", "error", err)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	accountService := initServices(cfg, sessions, changes)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewAccountHandler(accountService, sessions, cfg.Log))
	serverApp.OnShutdown(changes.Close)
	serverApp.Run()
}

func initServices(cfg *config.Config, sessions *auth.SessionManager, changes *cdc.Publisher) service.AccountService {
	accountValidator := validator.NewAccountValidator(cfg.Log)
	accountRepo := repository.NewMongoAccountRepository(cfg)
	credentialRepo := repository.NewMongoCredentialRepository(cfg)
	sessionRepo := repository.NewMongoSessionRepository(cfg)

	accountService := service.NewAccountService(
		accountRepo,
		credentialRepo,
		sessionRepo,
		sessions,
		accountValidator,
		changes,
		cfg,
	)

	cfg.Log.Info("Account service initialized", "database", cfg.MongoDatabaseName)
	return accountService
}
