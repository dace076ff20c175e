package app

import (
	"context"
	"fmt"

	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/domain"
)

// WorkflowService drives every work-item transition. All cross-request
// coordination lives in the store's conditional updates; the service holds
// no mutable state and any number of instances may run concurrently.
type WorkflowService struct {
	store          domain.Store
	events         domain.EventPublisher
	logger         *util.Logger
	commissionRate float64
}

func NewWorkflowService(store domain.Store, events domain.EventPublisher, logger *util.Logger, commissionRate float64) *WorkflowService {
	return &WorkflowService{
		store:          store,
		events:         events,
		logger:         logger,
		commissionRate: commissionRate,
	}
}

// ResolveWorker maps an authenticated identity to its worker profile.
// Profiles are never looked up by caller-supplied worker id.
func (s *WorkflowService) ResolveWorker(ctx context.Context, identityID string, role domain.Role) (*domain.WorkerProfile, error) {
	if identityID == "" {
		return nil, domain.ErrUnauthorized
	}
	if role != domain.RoleDriver && role != domain.RoleMechanic {
		return nil, domain.ErrForbidden
	}

	worker, err := s.store.GetWorkerByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if worker.Role != role {
		return nil, domain.ErrForbidden
	}
	return worker, nil
}

// recordEvent appends the transition to the item event log and publishes it.
// Both are best-effort: a completed transition is never rolled back because
// its event could not be recorded.
func (s *WorkflowService) recordEvent(ctx context.Context, instance string, event domain.WorkItemEvent) {
	if err := s.store.AppendItemEvent(ctx, event); err != nil {
		s.logger.Error(instance, fmt.Errorf("failed to append %s event for item %s: %w", event.EventType, event.ItemID, err))
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishItemEvent(ctx, event); err != nil {
		s.logger.Error(instance, fmt.Errorf("failed to publish %s event for item %s: %w", event.EventType, event.ItemID, err))
	}
}
