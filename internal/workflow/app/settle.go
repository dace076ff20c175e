package app

import (
	"context"
	"fmt"
	"time"

	"fuelserve/internal/workflow/domain"
)

// Complete finalizes a claimed item and settles with the worker. For a
// delivery the store applies the status flip, the commission accrual and
// the availability reset in one transaction; for a service request the
// optional actual cost is recorded alongside the flip. A recorded
// completion is never rolled back by a failed settlement step.
func (s *WorkflowService) Complete(ctx context.Context, worker *domain.WorkerProfile, itemID string, actualCost *float64) (*domain.WorkItem, error) {
	instance := "SettlementEngine.Complete"

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if domain.RequiredRole(item.Kind) != worker.Role {
		return nil, domain.ErrForbidden
	}

	params := domain.CompleteParams{
		ItemID:       itemID,
		WorkerID:     worker.ID,
		FromStatuses: domain.CompletableFrom(item.Kind),
		ToStatus:     domain.TerminalSuccess(item.Kind),
	}

	var earnings float64
	switch item.Kind {
	case domain.KindDelivery:
		earnings = s.commissionRate * item.Price
		params.Earnings = earnings
		params.ResetAvailability = true
	case domain.KindService:
		params.ActualCost = actualCost
	}

	updated, err := s.store.CompleteItem(ctx, params)
	if err != nil {
		return nil, err
	}
	s.logger.OK(instance, fmt.Sprintf("item %s completed by worker %s [earnings=%.2f]", itemID, worker.ID, earnings))

	eventData := map[string]interface{}{"price": item.Price}
	if earnings > 0 {
		eventData["earnings"] = earnings
	}
	if params.ActualCost != nil {
		eventData["actual_cost"] = *params.ActualCost
	}
	s.recordEvent(ctx, instance, domain.WorkItemEvent{
		ItemID:    updated.ID,
		Kind:      updated.Kind,
		EventType: domain.EventItemCompleted,
		WorkerID:  worker.ID,
		Data:      eventData,
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}
