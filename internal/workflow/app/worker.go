package app

import (
	"context"
	"fmt"
	"time"

	"fuelserve/internal/workflow/domain"
)

const recentItemsLimit = 10

// SetAvailability toggles the calling worker's own availability. A worker
// holding an active assignment cannot leave the busy state by hand; the
// claim workflow owns that transition.
func (s *WorkflowService) SetAvailability(ctx context.Context, worker *domain.WorkerProfile, value string) (*domain.WorkerProfile, error) {
	instance := "WorkflowService.SetAvailability"

	if !domain.ValidAvailability(worker.Role, value) {
		return nil, fmt.Errorf("%w: availability %q is not valid for role %s", domain.ErrInvalidTransition, value, worker.Role)
	}

	if value != domain.BusyAvailability(worker.Role) {
		active, err := s.store.CountActiveAssignments(ctx, worker.ID)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			s.logger.Warn(instance, fmt.Sprintf("worker %s tried to leave busy state with %d active assignments", worker.ID, active))
			return nil, domain.ErrWorkerBusy
		}
	}

	updated, err := s.store.SetWorkerAvailability(ctx, worker.ID, value)
	if err != nil {
		return nil, err
	}
	s.logger.OK(instance, fmt.Sprintf("worker %s availability set to %s", worker.ID, value))

	if s.events != nil {
		event := domain.WorkItemEvent{
			EventType: domain.EventAvailabilityChange,
			WorkerID:  worker.ID,
			Data:      map[string]interface{}{"availability": value},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.events.PublishItemEvent(ctx, event); err != nil {
			s.logger.Error(instance, fmt.Errorf("failed to publish availability event for worker %s: %w", worker.ID, err))
		}
	}

	return updated, nil
}

// ListAvailablePool returns the unclaimed items the worker's role may
// claim, oldest first.
func (s *WorkflowService) ListAvailablePool(ctx context.Context, worker *domain.WorkerProfile) ([]domain.WorkItem, error) {
	kind := domain.KindDelivery
	if worker.Role == domain.RoleMechanic {
		kind = domain.KindService
	}
	return s.store.ListAvailable(ctx, kind)
}

type DashboardSummary struct {
	Worker      *domain.WorkerProfile
	RecentItems []domain.WorkItem
	Counts      *domain.DashboardCounts
}

// GetDashboardSummary is a read-only aggregate: the worker's profile, its
// recent items and derived counts. No invariants beyond correct filtering.
func (s *WorkflowService) GetDashboardSummary(ctx context.Context, worker *domain.WorkerProfile) (*DashboardSummary, error) {
	items, err := s.store.ListByAssignee(ctx, worker.ID, recentItemsLimit)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.DashboardCounts(ctx, worker.ID)
	if err != nil {
		return nil, err
	}

	// Re-read the profile so accrued earnings reflect settlements that
	// happened after the middleware resolved the worker.
	fresh, err := s.store.GetWorker(ctx, worker.ID)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{Worker: fresh, RecentItems: items, Counts: counts}, nil
}
