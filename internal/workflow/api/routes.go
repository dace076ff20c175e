package api

import (
	"net/http"

	"fuelserve/internal/shared/middleware"
)

func (h *Handler) Router(healthz http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /workers/availability", h.AuthMiddleware(http.HandlerFunc(h.SetAvailabilityHandler)))
	mux.Handle("GET /workers/dashboard", h.AuthMiddleware(http.HandlerFunc(h.DashboardHandler)))

	mux.Handle("POST /items/{item_id}/claim", h.AuthMiddleware(http.HandlerFunc(h.ClaimHandler)))
	mux.Handle("POST /items/{item_id}/release", h.AuthMiddleware(http.HandlerFunc(h.ReleaseHandler)))
	mux.Handle("POST /items/{item_id}/start", h.AuthMiddleware(http.HandlerFunc(h.StartHandler)))
	mux.Handle("POST /items/{item_id}/complete", h.AuthMiddleware(http.HandlerFunc(h.CompleteHandler)))
	mux.Handle("GET /items/available", h.AuthMiddleware(http.HandlerFunc(h.ListPoolHandler)))

	mux.HandleFunc("GET /ws/workers", h.WorkerWSHandler)

	if healthz != nil {
		mux.HandleFunc("GET /healthz", healthz)
	}

	return middleware.RequestID(mux)
}
