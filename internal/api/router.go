package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/visualplatform/settlement-core/internal/api/handlers"
	custommiddleware "github.com/visualplatform/settlement-core/internal/api/middleware"
	"github.com/visualplatform/settlement-core/internal/config"
	"github.com/visualplatform/settlement-core/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	settlementService *service.SettlementService,
	reconciliationService *service.ReconciliationService,
	auditService *service.AuditService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/settlements", func(r chi.Router) {
			settlementHandler := handlers.NewSettlementHandler(settlementService)
			r.Post("/category-close", settlementHandler.CloseCategory)
			r.Post("/sales/article", settlementHandler.ArticleSale)
			r.Post("/sales/book", settlementHandler.BookSale)
			r.Post("/pots/monthly", settlementHandler.MonthlyPot)
			r.Post("/pots/24h", settlementHandler.Pot24h)
			r.Post("/points/convert", settlementHandler.ConvertPoints)
			r.Post("/golden-ticket-refund", settlementHandler.GoldenTicketRefund)
			r.Post("/extension", settlementHandler.ExtensionPayment)
		})

		r.Route("/ledger", func(r chi.Router) {
			ledgerHandler := handlers.NewLedgerHandler(settlementService)
			r.Get("/", ledgerHandler.Entries)
			r.Get("/metrics", ledgerHandler.Metrics)
			r.Get("/report", ledgerHandler.Report)
			r.Route("/{idempotencyKey}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateIdempotencyKeyMiddleware)
				r.Put("/status", ledgerHandler.UpdateStatus)
			})
		})

		r.Route("/reconciliation", func(r chi.Router) {
			reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
			r.Post("/processor-report", reconciliationHandler.IngestReport)
			r.Post("/run", reconciliationHandler.Run)
		})

		r.Route("/audit", func(r chi.Router) {
			auditHandler := handlers.NewAuditHandler(auditService)
			r.Get("/", auditHandler.Entries)
			r.Post("/verify", auditHandler.Verify)
			r.Post("/rotate", auditHandler.Rotate)
		})
	})

	return r
}
