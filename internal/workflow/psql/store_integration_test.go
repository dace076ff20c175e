package psql

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/domain"
)

// Integration tests run against a real database with migrations/init.sql
// applied. They skip when DB_URL is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		t.Skip("DB_URL not set (integration test)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedWorker(t *testing.T, pool *pgxpool.Pool, role domain.Role) string {
	t.Helper()
	identity, _ := util.GenerateUUID()

	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO worker_profiles (identity_id, role, availability)
		VALUES ($1, $2, 'AVAILABLE')
		RETURNING id
	`, identity, role).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func seedItem(t *testing.T, pool *pgxpool.Pool, kind domain.Kind, price float64) string {
	t.Helper()
	requester, _ := util.GenerateUUID()

	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO work_items (kind, requester_id, status, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, kind, requester, domain.InitialStatus(kind), price).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestClaimItem_ExactlyOneWinnerUnderContention(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	itemID := seedItem(t, pool, domain.KindDelivery, 1000)

	const n = 10
	workerIDs := make([]string, n)
	for i := range workerIDs {
		workerIDs[i] = seedWorker(t, pool, domain.RoleDriver)
	}

	var wg sync.WaitGroup
	wg.Add(n)

	var mu sync.Mutex
	winners := make([]string, 0, 1)
	conflicts := 0

	for i := 0; i < n; i++ {
		go func(workerID string) {
			defer wg.Done()
			_, err := store.ClaimItem(ctx, itemID, workerID, domain.StatusPending, domain.StatusConfirmed)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, workerID)
			case errors.Is(err, domain.ErrClaimConflict):
				conflicts++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(workerIDs[i])
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly 1 winner, got %d (%v)", len(winners), winners)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflicts)
	}

	item, err := store.GetItem(ctx, itemID)
	if err != nil {
		t.Fatal(err)
	}
	if !item.AssignedTo(winners[0]) {
		t.Fatalf("final assignee %v, want %s", item.AssigneeID, winners[0])
	}
}

func TestCompleteItem_SettlesInOneTransaction(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	workerID := seedWorker(t, pool, domain.RoleDriver)
	itemID := seedItem(t, pool, domain.KindDelivery, 1000)

	if _, err := store.ClaimItem(ctx, itemID, workerID, domain.StatusPending, domain.StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetWorkerAvailability(ctx, workerID, domain.AvailabilityBusy); err != nil {
		t.Fatal(err)
	}

	before, err := store.GetWorker(ctx, workerID)
	if err != nil {
		t.Fatal(err)
	}

	item, err := store.CompleteItem(ctx, domain.CompleteParams{
		ItemID:            itemID,
		WorkerID:          workerID,
		FromStatuses:      []string{domain.StatusConfirmed, domain.StatusInProgress},
		ToStatus:          domain.StatusDelivered,
		Earnings:          100,
		ResetAvailability: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != domain.StatusDelivered {
		t.Errorf("status = %s, want DELIVERED", item.Status)
	}

	after, err := store.GetWorker(ctx, workerID)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := after.AccruedEarnings-before.AccruedEarnings, 100.0; got != want {
		t.Errorf("earnings delta = %.2f, want %.2f", got, want)
	}
	if after.Availability != domain.AvailabilityAvailable {
		t.Errorf("availability = %s, want AVAILABLE", after.Availability)
	}
}

func TestReleaseItem_RejectsNonAssignee(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	holder := seedWorker(t, pool, domain.RoleDriver)
	intruder := seedWorker(t, pool, domain.RoleDriver)
	itemID := seedItem(t, pool, domain.KindDelivery, 500)

	if _, err := store.ClaimItem(ctx, itemID, holder, domain.StatusPending, domain.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	if _, err := store.ReleaseItem(ctx, itemID, intruder, domain.StatusConfirmed, domain.StatusPending); !errors.Is(err, domain.ErrNotAssignee) {
		t.Errorf("release by non-assignee: got %v, want ErrNotAssignee", err)
	}

	released, err := store.ReleaseItem(ctx, itemID, holder, domain.StatusConfirmed, domain.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if released.AssigneeID != nil || released.Status != domain.StatusPending {
		t.Errorf("release left item as %s/%v", released.Status, released.AssigneeID)
	}
}
