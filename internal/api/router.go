package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/StrategicUser/smcroute/internal/iface"
	"github.com/StrategicUser/smcroute/internal/mroute"
)

// State is the daemon state exposed over the status API. The interface
// table itself is not safe for concurrent use, so Mu serializes API
// reads against the control loop's reconciliation passes; the control
// loop takes the same lock.
type State struct {
	Mu      sync.Mutex
	Table   *iface.Table
	Manager *mroute.Manager
	// DumpFormat overrides the fixed-width text dump when set.
	DumpFormat string
}

// NewRouter creates the HTTP router for the status API.
func NewRouter(state *State) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger)

	h := &Handler{state: state}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/interfaces", h.GetInterfaces)
		r.Get("/routes", h.GetRoutes)
		r.Get("/health", h.CheckHealth)
	})

	return r
}

// Handler serves the status API endpoints.
type Handler struct {
	state *State
}
