package api

import (
	"delivery-dispatch-service/internal/api/handlers"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Lifecycle handlers.RouteLifecycle
	Assigner  handlers.RouteAssigner
	Planner   handlers.RouteCreator
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
	Log     logrus.FieldLogger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	routes := &handlers.RouteHandler{
		Lifecycle: d.Lifecycle,
		Assigner:  d.Assigner,
		Planner:   d.Planner,
	}

	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", metrics)

	mux.HandleFunc("POST /routes", routes.Create)
	mux.HandleFunc("POST /routes/assign-pending", routes.AssignPending)
	mux.HandleFunc("GET /routes/{id}", routes.Get)
	mux.HandleFunc("DELETE /routes/{id}", routes.Delete)
	mux.HandleFunc("POST /routes/{id}/assign", routes.Assign)
	mux.HandleFunc("POST /routes/{id}/transition", routes.Transition)
	mux.HandleFunc("POST /routes/{id}/claim", routes.Claim)
	mux.HandleFunc("PATCH /routes/{id}/stops/{seq}", routes.UpdateStop)

	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return loggingMiddleware(log, mux)
}
