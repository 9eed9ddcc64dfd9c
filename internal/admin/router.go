package admin

import (
	"encoding/json"
	"net/http"

	"gogsea/adapters/gmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CatalogStatusSource reports configured catalogs
type CatalogStatusSource interface {
	Status() []gmt.CatalogStatus
}

// Router serves operational endpoints on a port separate from the API:
// Prometheus metrics, pprof profiles and catalog status.
type Router struct {
	router   *chi.Mux
	metrics  http.Handler
	catalogs CatalogStatusSource
}

// NewRouter creates the admin router. catalogs may be nil.
func NewRouter(metrics http.Handler, catalogs CatalogStatusSource) *Router {
	r := &Router{
		router:   chi.NewRouter(),
		metrics:  metrics,
		catalogs: catalogs,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Handler exposes the router for http.Server and tests
func (r *Router) Handler() http.Handler {
	return r.router
}

func (r *Router) setupMiddleware() {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Logger)
	r.router.Use(middleware.Recoverer)
}

func (r *Router) setupRoutes() {
	r.router.Handle("/metrics", r.metrics)
	r.router.Mount("/debug", middleware.Profiler())
	r.router.Get("/catalogs", r.handleCatalogs)
}

func (r *Router) handleCatalogs(w http.ResponseWriter, req *http.Request) {
	status := []gmt.CatalogStatus{}
	if r.catalogs != nil {
		status = r.catalogs.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"catalogs": status}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
