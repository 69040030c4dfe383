package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/service-router/internal/router"
)

// AdminHandler exposes the operational surface: service stats and
// connection counter resets.
type AdminHandler struct {
	logger *slog.Logger
	router *router.Router
}

func NewAdminHandler(logger *slog.Logger, r *router.Router) *AdminHandler {
	return &AdminHandler{
		logger: logger,
		router: r,
	}
}

// ServiceStats serves GET /admin/services/{name}.
func (h *AdminHandler) ServiceStats(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("name")
	if service == "" {
		http.Error(w, "missing service name", http.StatusBadRequest)
		return
	}

	stats := h.router.ServiceStats(service)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ResetConnections serves POST /admin/connections/reset?service=name.
// Without a service parameter every service's counters are reset.
func (h *AdminHandler) ResetConnections(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")

	h.router.ResetConnections(service)

	h.logger.Info("Reset connection counters",
		slog.String("service", service))

	w.WriteHeader(http.StatusNoContent)
}
