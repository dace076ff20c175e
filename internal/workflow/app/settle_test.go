package app

import (
	"context"
	"errors"
	"testing"

	"fuelserve/internal/workflow/domain"
)

// Full delivery lifecycle: W1 claims D1, W2 loses the race, W1 completes
// and is paid commission on the price.
func TestDeliveryWorkflow_EndToEnd(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	w1 := store.CreateWorker("identity-w1", domain.RoleDriver)
	w2 := store.CreateWorker("identity-w2", domain.RoleDriver)
	d1 := store.CreateItem(domain.KindDelivery, "customer-1", 1000)

	claimed, err := service.Claim(ctx, &w1, d1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.Status != domain.StatusConfirmed || !claimed.AssignedTo(w1.ID) {
		t.Fatalf("claim left item as %s/%v", claimed.Status, claimed.AssigneeID)
	}

	if _, err := service.Claim(ctx, &w2, d1.ID); !errors.Is(err, domain.ErrClaimConflict) {
		t.Fatalf("second claim: got %v, want ErrClaimConflict", err)
	}

	completed, err := service.Complete(ctx, &w1, d1.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if completed.Status != domain.StatusDelivered {
		t.Errorf("status = %s, want DELIVERED", completed.Status)
	}

	settled, err := store.GetWorker(ctx, w1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if settled.AccruedEarnings != 100 {
		t.Errorf("accrued earnings = %.2f, want 100.00 (0.10 x 1000)", settled.AccruedEarnings)
	}
	if settled.Availability != domain.AvailabilityAvailable {
		t.Errorf("availability = %s, want AVAILABLE", settled.Availability)
	}
}

func TestComplete_EarningsAccumulate(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()
	driver := store.CreateWorker("identity-driver", domain.RoleDriver)

	prices := []float64{1000, 250, 400}
	var want float64
	for _, price := range prices {
		item := store.CreateItem(domain.KindDelivery, "customer-1", price)
		if _, err := service.Claim(ctx, &driver, item.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := service.Complete(ctx, &driver, item.ID, nil); err != nil {
			t.Fatal(err)
		}
		want += 0.10 * price

		settled, err := store.GetWorker(ctx, driver.ID)
		if err != nil {
			t.Fatal(err)
		}
		if settled.AccruedEarnings != want {
			t.Fatalf("accrued earnings = %.2f, want %.2f", settled.AccruedEarnings, want)
		}
	}
}

func TestComplete_ServiceRecordsActualCost(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()
	mechanic := store.CreateWorker("identity-mechanic", domain.RoleMechanic)
	item := store.CreateItem(domain.KindService, "customer-1", 800)

	if _, err := service.Claim(ctx, &mechanic, item.ID); err != nil {
		t.Fatal(err)
	}

	// A mechanic cannot complete without starting the job.
	cost := 920.0
	if _, err := service.Complete(ctx, &mechanic, item.ID, &cost); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("complete from CONFIRMED: got %v, want ErrInvalidTransition", err)
	}

	if _, err := service.Start(ctx, &mechanic, item.ID); err != nil {
		t.Fatal(err)
	}

	completed, err := service.Complete(ctx, &mechanic, item.ID, &cost)
	if err != nil {
		t.Fatal(err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if completed.ActualCost == nil || *completed.ActualCost != cost {
		t.Errorf("actual cost = %v, want %.2f", completed.ActualCost, cost)
	}

	// Service completions carry no commission settlement.
	settled, err := store.GetWorker(ctx, mechanic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if settled.AccruedEarnings != 0 {
		t.Errorf("mechanic earnings = %.2f, want 0", settled.AccruedEarnings)
	}
}

func TestComplete_NonAssignee(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()
	holder := store.CreateWorker("identity-1", domain.RoleDriver)
	intruder := store.CreateWorker("identity-2", domain.RoleDriver)
	item := store.CreateItem(domain.KindDelivery, "customer-1", 600)

	if _, err := service.Claim(ctx, &holder, item.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := service.Complete(ctx, &intruder, item.ID, nil); !errors.Is(err, domain.ErrNotAssignee) {
		t.Errorf("complete by non-assignee: got %v, want ErrNotAssignee", err)
	}

	// The intruder's attempt changed nothing.
	got, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusConfirmed || !got.AssignedTo(holder.ID) {
		t.Errorf("item mutated by failed complete: %s/%v", got.Status, got.AssigneeID)
	}
}

func TestComplete_RoleGating(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()
	driver := store.CreateWorker("identity-driver", domain.RoleDriver)
	mechanic := store.CreateWorker("identity-mechanic", domain.RoleMechanic)
	item := store.CreateItem(domain.KindDelivery, "customer-1", 600)

	if _, err := service.Claim(ctx, &driver, item.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := service.Complete(ctx, &mechanic, item.ID, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("mechanic completing delivery: got %v, want ErrForbidden", err)
	}
}
