package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fuelserve/internal/shared/middleware"
	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/app"
	"fuelserve/internal/workflow/domain"
)

type Handler struct {
	service *app.WorkflowService
	logger  *util.Logger
	secret  []byte
	hub     *Hub
}

func NewHandler(service *app.WorkflowService, logger *util.Logger, secret []byte, hub *Hub) *Handler {
	return &Handler{service: service, logger: logger, secret: secret, hub: hub}
}

// resolveWorker maps the authenticated request to the caller's worker
// profile. Every mutating handler goes through here; worker ids are never
// read from the request.
func (h *Handler) resolveWorker(w http.ResponseWriter, r *http.Request, instance string) (*domain.WorkerProfile, bool) {
	identityID, role := identityFromContext(r.Context())

	worker, err := h.service.ResolveWorker(r.Context(), identityID, domain.Role(role))
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return nil, false
	}
	return worker, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, instance string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		util.WriteJSONError(w, "UNAUTHORIZED", "authentication required", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrWorkerNotFound):
		util.WriteJSONError(w, "FORBIDDEN", "operation not allowed for this caller", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		util.WriteJSONError(w, "NOT_FOUND", "work item not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrClaimConflict):
		util.WriteJSONError(w, "CLAIM_CONFLICT", "item already claimed or no longer available", http.StatusConflict)
	case errors.Is(err, domain.ErrNotAssignee):
		util.WriteJSONError(w, "NOT_ASSIGNEE", "caller is not the current assignee", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidTransition):
		util.WriteJSONError(w, "INVALID_TRANSITION", "item is not in the required status", http.StatusConflict)
	case errors.Is(err, domain.ErrWorkerBusy):
		util.WriteJSONError(w, "WORKER_BUSY", "finish or release the active assignment first", http.StatusConflict)
	default:
		// Store internals never leak to the caller; the correlation id ties
		// the response to the logged failure.
		requestID := middleware.GetRequestID(r.Context())
		h.logger.Error(instance, fmt.Errorf("internal error [request_id=%s]: %w", requestID, err))
		util.WriteJSONError(w, "INTERNAL", "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) SetAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.SetAvailability"
	start := time.Now()

	worker, ok := h.resolveWorker(w, r, instance)
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "BAD_REQUEST", "invalid JSON body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.SetAvailability(r.Context(), worker, req.Availability)
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toWorkerResponse(updated))
	h.logger.HTTP(http.StatusOK, time.Since(start), middleware.GetRequestID(r.Context()), r.Method, r.URL.Path)
}

func (h *Handler) ClaimHandler(w http.ResponseWriter, r *http.Request) {
	h.itemTransition(w, r, "Gateway.Claim", func(worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
		return h.service.Claim(r.Context(), worker, itemID)
	})
}

func (h *Handler) ReleaseHandler(w http.ResponseWriter, r *http.Request) {
	h.itemTransition(w, r, "Gateway.Release", func(worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
		return h.service.Release(r.Context(), worker, itemID)
	})
}

func (h *Handler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.itemTransition(w, r, "Gateway.Start", func(worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
		return h.service.Start(r.Context(), worker, itemID)
	})
}

func (h *Handler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.Complete"
	start := time.Now()

	worker, ok := h.resolveWorker(w, r, instance)
	if !ok {
		return
	}

	itemID := r.PathValue("item_id")
	if itemID == "" {
		util.WriteJSONError(w, "BAD_REQUEST", "missing item id", http.StatusBadRequest)
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		util.WriteJSONError(w, "BAD_REQUEST", "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ActualCost != nil && *req.ActualCost < 0 {
		util.WriteJSONError(w, "BAD_REQUEST", "actual_cost must be non-negative", http.StatusBadRequest)
		return
	}

	item, err := h.service.Complete(r.Context(), worker, itemID, req.ActualCost)
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toItemResponse(item))
	h.logger.HTTP(http.StatusOK, time.Since(start), middleware.GetRequestID(r.Context()), r.Method, r.URL.Path)
}

func (h *Handler) itemTransition(w http.ResponseWriter, r *http.Request, instance string, op func(*domain.WorkerProfile, string) (*domain.WorkItem, error)) {
	start := time.Now()

	worker, ok := h.resolveWorker(w, r, instance)
	if !ok {
		return
	}

	itemID := r.PathValue("item_id")
	if itemID == "" {
		util.WriteJSONError(w, "BAD_REQUEST", "missing item id", http.StatusBadRequest)
		return
	}

	item, err := op(worker, itemID)
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toItemResponse(item))
	h.logger.HTTP(http.StatusOK, time.Since(start), middleware.GetRequestID(r.Context()), r.Method, r.URL.Path)
}

func (h *Handler) ListPoolHandler(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.ListAvailablePool"

	worker, ok := h.resolveWorker(w, r, instance)
	if !ok {
		return
	}

	items, err := h.service.ListAvailablePool(r.Context(), worker)
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, map[string]interface{}{"items": toItemResponses(items)})
}

func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.GetDashboardSummary"

	worker, ok := h.resolveWorker(w, r, instance)
	if !ok {
		return
	}

	summary, err := h.service.GetDashboardSummary(r.Context(), worker)
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toDashboardResponse(summary))
}
