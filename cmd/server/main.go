package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	httpapi "github.com/EviewNicks/rental-baju-sub002/internal/api/http"
	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/config"
	"github.com/EviewNicks/rental-baju-sub002/internal/engine"
	"github.com/EviewNicks/rental-baju-sub002/internal/jobs"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
	"github.com/EviewNicks/rental-baju-sub002/internal/penalty"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository/postgres"
	"github.com/EviewNicks/rental-baju-sub002/internal/scheduler"
	"github.com/EviewNicks/rental-baju-sub002/internal/validation"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting rental lifecycle service...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Store
	store := postgres.NewStore(db, cfg.Store.CommitTimeout())

	// Initialize Audit Sink
	sink := audit.NewLogSink()

	// Initialize Validators and Calculator
	ruleCfg := validation.Config{
		MaxBatchItems:     cfg.Rules.MaxBatchItems,
		MaxBatchQuantity:  cfg.Rules.MaxBatchQuantity,
		WarnBatchQuantity: cfg.Rules.WarnBatchQuantity,
		SnapshotStaleness: cfg.Rules.SnapshotStaleness(),
		OpenHour:          cfg.Rules.OpenHour,
		CloseHour:         cfg.Rules.CloseHour,
		ClosedDays:        cfg.Rules.ClosedWeekdays(),
	}
	pickupValidator := validation.NewPickupValidator(ruleCfg)
	returnValidator := validation.NewReturnValidator(ruleCfg)
	calculator := penalty.NewCalculator(penalty.Config{
		DamagedLightFeeCents: cfg.Penalty.DamagedLightFeeCents,
		DamagedHeavyFeeCents: cfg.Penalty.DamagedHeavyFeeCents,
		LostFallbackCents:    cfg.Penalty.LostItemFallbackCents,
	})

	// Initialize Engines
	pickupEngine := engine.NewPickupEngine(store, sink, pickupValidator)
	returnEngine := engine.NewReturnEngine(store, sink, returnValidator, calculator)

	// Initialize Scheduler
	jobRunner := jobs.NewJobRunner(db, sink, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Set up HTTP server
	handler := httpapi.NewLifecycleHandler(pickupEngine, returnEngine, store)
	router := mux.NewRouter()
	httpapi.RegisterLifecycleRoutes(router, handler)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
