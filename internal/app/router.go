package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vendinha-erp/vendinha-erp/internal/catalog"
	"github.com/vendinha-erp/vendinha-erp/internal/customers"
	"github.com/vendinha-erp/vendinha-erp/internal/inventory"
	"github.com/vendinha-erp/vendinha-erp/internal/observability"
	"github.com/vendinha-erp/vendinha-erp/internal/production"
	"github.com/vendinha-erp/vendinha-erp/internal/purchasing"
	"github.com/vendinha-erp/vendinha-erp/internal/reports"
	"github.com/vendinha-erp/vendinha-erp/internal/returnables"
	"github.com/vendinha-erp/vendinha-erp/internal/sales"
	"github.com/vendinha-erp/vendinha-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	CatalogHandler     *catalog.Handler
	CustomersHandler   *customers.Handler
	InventoryHandler   *inventory.Handler
	PurchasingHandler  *purchasing.Handler
	ProductionHandler  *production.Handler
	SalesHandler       *sales.Handler
	ReturnablesHandler *returnables.Handler
	ReportsHandler     *reports.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
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

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", params.CatalogHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/purchases", params.PurchasingHandler.MountRoutes)
		r.Route("/batches", params.ProductionHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/returnables", params.ReturnablesHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
