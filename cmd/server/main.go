package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/pharmacy-audit/internal/aig"
	"github.com/garyjia/pharmacy-audit/internal/application/service"
	"github.com/garyjia/pharmacy-audit/internal/config"
	httpserver "github.com/garyjia/pharmacy-audit/internal/interfaces/http"
	"github.com/garyjia/pharmacy-audit/internal/repository"
	"github.com/garyjia/pharmacy-audit/internal/storage"
	"github.com/garyjia/pharmacy-audit/migrations"
	"github.com/garyjia/pharmacy-audit/pkg/database"
	"github.com/garyjia/pharmacy-audit/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting pharmacy audit template service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run migrations
	if err := database.NewMigrator(db, logger).Run(ctx, migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}

	var fileRules *aig.Table
	if cfg.Generator.RulesFile != "" {
		fileRules, err = aig.LoadFile(cfg.Generator.RulesFile)
		if err != nil {
			logger.Fatal("Failed to load rules file", zap.Error(err))
		}
		logger.Info("Loaded rules file",
			zap.String("path", cfg.Generator.RulesFile),
			zap.Int("rules", len(fileRules.Rules())))
	}

	// Initialize repositories and service
	svc := service.NewGenerationService(
		repository.NewRunRepository(db.DB, logger),
		repository.NewRuleRepository(db.DB, logger),
		repository.NewPractitionerRepository(db.DB, logger),
		storage.NewTemplateStore(cfg.Storage.OutputDir, logger),
		cfg.ReportConfig(),
		fileRules,
		logger,
	)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
	}, svc, utils.NewKVLogger(logger))

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}
