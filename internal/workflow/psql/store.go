package psql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuelserve/internal/workflow/domain"
)

// Store is the Postgres record store. Mutations are conditional UPDATEs:
// the WHERE clause carries the precondition and a zero-row result means the
// predicate no longer held at write time. Nothing here does
// read-then-unconditional-write.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const itemColumns = `id, kind, requester_id, assignee_id, status, price, actual_cost, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.WorkItem, error) {
	var item domain.WorkItem
	err := row.Scan(&item.ID, &item.Kind, &item.RequesterID, &item.AssigneeID,
		&item.Status, &item.Price, &item.ActualCost, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetItem(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM work_items
		WHERE id = $1
	`, itemID)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return item, nil
}

func (s *Store) ClaimItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE work_items
		SET assignee_id = $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = $4 AND assignee_id IS NULL
		RETURNING `+itemColumns,
		itemID, workerID, toStatus, fromStatus)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race, or the item was cancelled or never existed.
		if _, getErr := s.GetItem(ctx, itemID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrClaimConflict
	} else if err != nil {
		return nil, fmt.Errorf("failed to claim work item: %w", err)
	}
	return item, nil
}

func (s *Store) ReleaseItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE work_items
		SET assignee_id = NULL,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND assignee_id = $2 AND status = $4
		RETURNING `+itemColumns,
		itemID, workerID, toStatus, fromStatus)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.assigneeFailure(ctx, itemID, workerID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to release work item: %w", err)
	}
	return item, nil
}

func (s *Store) StartItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE work_items
		SET status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND assignee_id = $2 AND status = $4
		RETURNING `+itemColumns,
		itemID, workerID, toStatus, fromStatus)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.assigneeFailure(ctx, itemID, workerID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to start work item: %w", err)
	}
	return item, nil
}

func (s *Store) CompleteItem(ctx context.Context, p domain.CompleteParams) (*domain.WorkItem, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE work_items
		SET status = $3,
		    actual_cost = COALESCE($4, actual_cost),
		    updated_at = NOW()
		WHERE id = $1 AND assignee_id = $2 AND status = ANY($5)
		RETURNING `+itemColumns,
		p.ItemID, p.WorkerID, p.ToStatus, p.ActualCost, p.FromStatuses)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.assigneeFailure(ctx, p.ItemID, p.WorkerID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to complete work item: %w", err)
	}

	// Settlement shares the item's transaction: the earnings accrual is an
	// atomic increment, never a read-modify-write.
	if p.Earnings > 0 || p.ResetAvailability {
		query := `
			UPDATE worker_profiles
			SET accrued_earnings = accrued_earnings + $2,
			    updated_at = NOW()
			WHERE id = $1
		`
		if p.ResetAvailability {
			query = `
				UPDATE worker_profiles
				SET accrued_earnings = accrued_earnings + $2,
				    availability = 'AVAILABLE',
				    updated_at = NOW()
				WHERE id = $1
			`
		}
		if _, err := tx.Exec(ctx, query, p.WorkerID, p.Earnings); err != nil {
			return nil, fmt.Errorf("failed to settle worker %s: %w", p.WorkerID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	return item, nil
}

// assigneeFailure turns a zero-row conditional update into the right
// domain error by re-reading the row.
func (s *Store) assigneeFailure(ctx context.Context, itemID, workerID string) error {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Assigned() && !item.AssignedTo(workerID) {
		return domain.ErrNotAssignee
	}
	return domain.ErrInvalidTransition
}

func (s *Store) ListAvailable(ctx context.Context, kind domain.Kind) ([]domain.WorkItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM work_items
		WHERE kind = $1 AND assignee_id IS NULL AND status = $2
		ORDER BY created_at ASC
	`, kind, domain.InitialStatus(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list available items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (s *Store) ListByAssignee(ctx context.Context, workerID string, limit int) ([]domain.WorkItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+itemColumns+`
		FROM work_items
		WHERE assignee_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	out := make([]domain.WorkItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

const workerColumns = `id, identity_id, role, availability, accrued_earnings, rating, created_at, updated_at`

func scanWorker(row pgx.Row) (*domain.WorkerProfile, error) {
	var w domain.WorkerProfile
	err := row.Scan(&w.ID, &w.IdentityID, &w.Role, &w.Availability,
		&w.AccruedEarnings, &w.Rating, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) GetWorker(ctx context.Context, workerID string) (*domain.WorkerProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+workerColumns+`
		FROM worker_profiles
		WHERE id = $1
	`, workerID)

	worker, err := scanWorker(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkerNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	return worker, nil
}

func (s *Store) GetWorkerByIdentity(ctx context.Context, identityID string) (*domain.WorkerProfile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+workerColumns+`
		FROM worker_profiles
		WHERE identity_id = $1
	`, identityID)

	worker, err := scanWorker(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkerNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get worker by identity: %w", err)
	}
	return worker, nil
}

func (s *Store) SetWorkerAvailability(ctx context.Context, workerID, availability string) (*domain.WorkerProfile, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE worker_profiles
		SET availability = $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+workerColumns,
		workerID, availability)

	worker, err := scanWorker(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkerNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to set worker availability: %w", err)
	}
	return worker, nil
}

func (s *Store) CountActiveAssignments(ctx context.Context, workerID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM work_items
		WHERE assignee_id = $1
		AND status NOT IN ('DELIVERED', 'COMPLETED', 'CANCELLED')
	`, workerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active assignments: %w", err)
	}
	return count, nil
}

func (s *Store) DashboardCounts(ctx context.Context, workerID string) (*domain.DashboardCounts, error) {
	counts := &domain.DashboardCounts{}
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status NOT IN ('DELIVERED', 'COMPLETED', 'CANCELLED')) AS active,
			COUNT(*) FILTER (WHERE status IN ('DELIVERED', 'COMPLETED') AND DATE(updated_at) = CURRENT_DATE) AS completed_today
		FROM work_items
		WHERE assignee_id = $1
	`, workerID).Scan(&counts.Active, &counts.CompletedToday)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
	}
	return counts, nil
}

func (s *Store) AppendItemEvent(ctx context.Context, event domain.WorkItemEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO work_item_events (item_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3::jsonb, NOW())
	`, event.ItemID, event.EventType, string(data))
	if err != nil {
		return fmt.Errorf("failed to insert work_item_event: %w", err)
	}
	return nil
}
