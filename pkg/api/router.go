package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/lotpurge/pkg/api/handlers"
	"github.com/marmos91/lotpurge/pkg/api/middleware"
	"github.com/marmos91/lotpurge/pkg/lotman"
	"github.com/marmos91/lotpurge/pkg/metrics"
)

// Deps are the services the API serves.
type Deps struct {
	Lots    *lotman.Manager
	Planner handlers.PlanSource

	// Run triggers an on-demand cycle; nil disables POST /api/v1/plan/run.
	Run handlers.CycleRunner
}

// NewRouter creates the chi router with middleware and routes.
//
// Routes:
//   - GET    /health                          liveness probe
//   - GET    /health/ready                    readiness probe
//   - GET    /metrics                         Prometheus exposition (404 when disabled)
//   - GET    /api/v1/plan                     last cycle result
//   - POST   /api/v1/plan/run                 run a cycle now
//   - GET    /api/v1/plan/config              active purge parameters
//   - PUT    /api/v1/plan/config              reconfigure purge parameters
//   - GET    /api/v1/lots                     list lots
//   - POST   /api/v1/lots                     create a lot
//   - GET    /api/v1/lots/past/{listing}      lots past deletion/expiration/opportunistic/dedicated
//   - GET    /api/v1/lots/{name}              get a lot
//   - DELETE /api/v1/lots/{name}              remove a lot
//   - GET    /api/v1/lots/{name}/usage        usage components
//   - GET    /api/v1/lots/{name}/dirs         governed directories
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	var lots handlers.LotLister
	if deps.Lots != nil {
		lots = deps.Lots
	}
	health := handlers.NewHealthHandler(lots, deps.Planner)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Planner != nil {
			plan := handlers.NewPlanHandler(deps.Planner, deps.Run)
			r.Route("/plan", func(r chi.Router) {
				r.Get("/", plan.Last)
				r.Post("/run", plan.Run)
				r.Get("/config", plan.Config)
				r.Put("/config", plan.Configure)
			})
		}

		if deps.Lots != nil {
			lotHandler := handlers.NewLotHandler(deps.Lots)
			r.Route("/lots", func(r chi.Router) {
				r.Get("/", lotHandler.List)
				r.Post("/", lotHandler.Create)
				r.Get("/past/{listing}", lotHandler.Past)
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", lotHandler.Get)
					r.Delete("/", lotHandler.Delete)
					r.Get("/usage", lotHandler.Usage)
					r.Get("/dirs", lotHandler.Dirs)
				})
			})
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}
