// Package rest exposes the client's local operational endpoints:
// cluster status, liveness and prometheus metrics.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridstore/gridstore-go/cluster"
)

// StatusHandler serves the status API for one cluster.
type StatusHandler struct {
	cluster *cluster.Cluster
}

// NewStatusHandler creates a new instance of StatusHandler.
func NewStatusHandler(c *cluster.Cluster) *StatusHandler {
	return &StatusHandler{cluster: c}
}

// RegisterRoutes registers the status routes.
func (h *StatusHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// handleStatus handles GET /status requests with a membership
// snapshot.
func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.cluster.State())
}

// handleHealth handles GET /health requests. The client process is
// healthy as long as the cluster has at least one active node and is
// not shutting down.
func (h *StatusHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := h.cluster.State()
	if state.Disposing || len(state.Active) == 0 {
		http.Error(w, "no active nodes", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
