package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campusledger/campusledger/internal/auth"
	"github.com/campusledger/campusledger/internal/budget"
	"github.com/campusledger/campusledger/internal/finance/accounts"
	"github.com/campusledger/campusledger/internal/finance/journals"
	"github.com/campusledger/campusledger/internal/finance/reports"
	"github.com/campusledger/campusledger/internal/finance/transactions"
	"github.com/campusledger/campusledger/internal/observability"
	"github.com/campusledger/campusledger/internal/shared"
	"github.com/campusledger/campusledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware
	Audit          shared.AuditRecorder

	AccountsHandler     *accounts.Handler
	JournalsHandler     *journals.Handler
	TransactionsHandler *transactions.Handler
	ReportsHandler      *reports.Handler
	BudgetsHandler      *budget.Handler
	JobsHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusLedger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/finance", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)
		r.Use(AuditMiddleware(params.Audit, params.Logger))

		params.AccountsHandler.MountRoutes(r)
		params.JournalsHandler.MountRoutes(r)
		params.TransactionsHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
		params.BudgetsHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
