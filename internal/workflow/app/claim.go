package app

import (
	"context"
	"fmt"
	"time"

	"fuelserve/internal/workflow/domain"
)

// Claim assigns the item exclusively to the calling worker. The write is a
// single conditional update predicated on the item still being unassigned
// and in its initial status; losing the race surfaces as ErrClaimConflict
// and the caller must re-read before trying again.
func (s *WorkflowService) Claim(ctx context.Context, worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
	instance := "ClaimManager.Claim"

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if domain.RequiredRole(item.Kind) != worker.Role {
		s.logger.Warn(instance, fmt.Sprintf("role %s cannot claim %s item %s", worker.Role, item.Kind, itemID))
		return nil, domain.ErrForbidden
	}

	updated, err := s.store.ClaimItem(ctx, itemID, worker.ID, domain.InitialStatus(item.Kind), domain.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.logger.OK(instance, fmt.Sprintf("item %s claimed by worker %s", itemID, worker.ID))

	// Claiming a delivery takes the driver out of the pool of available
	// workers. This touches only the claimer's own row, so it is a second
	// independent update rather than part of the claim's predicate.
	if item.Kind == domain.KindDelivery {
		if _, err := s.store.SetWorkerAvailability(ctx, worker.ID, domain.BusyAvailability(worker.Role)); err != nil {
			s.logger.Error(instance, fmt.Errorf("failed to mark worker %s busy after claim: %w", worker.ID, err))
		}
	}

	s.recordEvent(ctx, instance, domain.WorkItemEvent{
		ItemID:    updated.ID,
		Kind:      updated.Kind,
		EventType: domain.EventItemClaimed,
		WorkerID:  worker.ID,
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}

// Release gives the claim up voluntarily and returns the item to the
// available pool. Only the current assignee may release, and only while the
// item is still CONFIRMED; once work has started the only exit is Complete.
func (s *WorkflowService) Release(ctx context.Context, worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
	instance := "ClaimManager.Release"

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if domain.RequiredRole(item.Kind) != worker.Role {
		return nil, domain.ErrForbidden
	}

	updated, err := s.store.ReleaseItem(ctx, itemID, worker.ID, domain.StatusConfirmed, domain.InitialStatus(item.Kind))
	if err != nil {
		return nil, err
	}
	s.logger.OK(instance, fmt.Sprintf("item %s released by worker %s", itemID, worker.ID))

	if item.Kind == domain.KindDelivery {
		if _, err := s.store.SetWorkerAvailability(ctx, worker.ID, domain.AvailabilityAvailable); err != nil {
			s.logger.Error(instance, fmt.Errorf("failed to reset worker %s after release: %w", worker.ID, err))
		}
	}

	s.recordEvent(ctx, instance, domain.WorkItemEvent{
		ItemID:    updated.ID,
		Kind:      updated.Kind,
		EventType: domain.EventItemReleased,
		WorkerID:  worker.ID,
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}

// Start moves a claimed item into execution, CONFIRMED -> IN_PROGRESS.
func (s *WorkflowService) Start(ctx context.Context, worker *domain.WorkerProfile, itemID string) (*domain.WorkItem, error) {
	instance := "ClaimManager.Start"

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if domain.RequiredRole(item.Kind) != worker.Role {
		return nil, domain.ErrForbidden
	}

	updated, err := s.store.StartItem(ctx, itemID, worker.ID, domain.StatusConfirmed, domain.StatusInProgress)
	if err != nil {
		return nil, err
	}
	s.logger.OK(instance, fmt.Sprintf("item %s started by worker %s", itemID, worker.ID))

	s.recordEvent(ctx, instance, domain.WorkItemEvent{
		ItemID:    updated.ID,
		Kind:      updated.Kind,
		EventType: domain.EventItemStarted,
		WorkerID:  worker.ID,
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}
