package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/posrelay/internal/middleware"
	"github.com/mcoot/posrelay/internal/transport/ws"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Logger *slog.Logger
	Relay  *ws.Relay
}

// NewRouter creates the HTTP router: the WebSocket endpoint and the health
// check, behind recovery and logging middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/ws", cfg.Relay.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
