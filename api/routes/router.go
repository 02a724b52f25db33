package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkaddour/gestock-backend/api/controllers"
	"github.com/mkaddour/gestock-backend/api/middleware"
	ledgersvc "github.com/mkaddour/gestock-backend/internal/ledger"
	partysvc "github.com/mkaddour/gestock-backend/internal/parties"
	reportsvc "github.com/mkaddour/gestock-backend/internal/reports"
	stocksvc "github.com/mkaddour/gestock-backend/internal/stocks"
	"github.com/mkaddour/gestock-backend/pkg/config"
	"github.com/mkaddour/gestock-backend/pkg/db"
	"github.com/mkaddour/gestock-backend/pkg/logger"
	pkgredis "github.com/mkaddour/gestock-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	loc *time.Location,
	dbPinger db.Pinger,
	redisPinger pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	stockService stocksvc.Service,
	partyService partysvc.Service,
	ledgerService ledgersvc.Service,
	reportService reportsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", controllers.ListStocks(stockService, logg))
			r.Post("/", controllers.CreateStock(stockService, logg))
			r.Get("/{stockId}", controllers.GetStock(stockService, logg))
			r.Patch("/{stockId}", controllers.UpdateStock(stockService, logg))
			r.Delete("/{stockId}", controllers.DeleteStock(stockService, logg))
			r.Get("/{stockId}/transactions", controllers.ListStockTransactions(ledgerService, loc, logg))
			r.Get("/{stockId}/report", controllers.ReportStock(reportService, loc, logg))
		})

		r.Route("/parties", func(r chi.Router) {
			r.Get("/", controllers.ListParties(partyService, logg))
			r.Post("/", controllers.CreateParty(partyService, logg))
			r.Get("/{partyId}", controllers.GetParty(partyService, logg))
			r.Patch("/{partyId}", controllers.UpdateParty(partyService, logg))
			r.Delete("/{partyId}", controllers.DeleteParty(partyService, logg))
			r.Get("/{partyId}/report", controllers.ReportParty(reportService, loc, logg))
		})

		r.Get("/transactions", controllers.ListTransactions(ledgerService, loc, logg))
		r.With(middleware.Idempotency(idempotencyStore, cfg.Ledger.IdempotencyTTL, logg)).
			Post("/transactions", controllers.ApplyTransaction(ledgerService, logg))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", controllers.ReportDashboard(reportService, loc, logg))
			r.Get("/summary", controllers.ReportSummary(reportService, loc, logg))
			r.Get("/valuation", controllers.ReportValuation(reportService, logg))
		})
	})

	return r
}
