package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/visualplatform/settlement-core/internal/api"
	"github.com/visualplatform/settlement-core/internal/audit"
	"github.com/visualplatform/settlement-core/internal/config"
	"github.com/visualplatform/settlement-core/internal/database"
	"github.com/visualplatform/settlement-core/internal/payout"
	"github.com/visualplatform/settlement-core/internal/repository"
	"github.com/visualplatform/settlement-core/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply pending migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	ledgerRepo := repository.NewLedgerRepository(db, cfg.Ledger.RefKey)
	processorRepo := repository.NewProcessorSettlementRepository(db)

	// Create the audit trail
	trail := audit.NewTrailService(cfg.Audit.HMACKey, cfg.Audit.LogPath)

	// Create services
	systemService := service.NewSystemService(db)
	settlementService := service.NewSettlementService(
		ledgerRepo,
		trail,
		payout.PointsPolicy{Threshold: cfg.Points.Threshold, Rate: cfg.Points.Rate},
	)
	reconciliationService := service.NewReconciliationService(
		ledgerRepo,
		processorRepo,
		trail,
	)
	auditService := service.NewAuditService(trail, cfg.Audit.KeepArchives)

	// Schedule the nightly reconciliation over the previous day
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Reconcile.Schedule, func() {
		end := time.Now().UTC()
		start := end.Add(-24 * time.Hour)

		report, err := reconciliationService.Run(context.Background(), "scheduler", start, end)
		if err != nil {
			log.Printf("Scheduled reconciliation failed: %v", err)
			return
		}
		log.Printf("Reconciliation: %d references, %d mismatched, %d warnings",
			report.TotalCount, report.MismatchedCount, len(report.Warnings))
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(systemService, settlementService, reconciliationService, auditService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
