package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	// Sync protocol: subscriptions and reducer calls over one websocket.
	r.HandleFunc("/v1/sync", deps.Hub.ServeHTTP)

	r.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
}
