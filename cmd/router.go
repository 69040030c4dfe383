package main

import (
	"net/http"

	"github.com/angeloszaimis/service-router/internal/handler"
	"github.com/angeloszaimis/service-router/internal/metrics"
)

func setupRouter(gateway *handler.GatewayHandler, admin *handler.AdminHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("GET /admin/services/{name}", admin.ServiceStats)
	mux.HandleFunc("POST /admin/connections/reset", admin.ResetConnections)
	mux.HandleFunc("/", gateway.ServeHTTP)

	return mux
}
