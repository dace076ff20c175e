package domain

import "context"

// CompleteParams carries everything the store needs to finalize an item in
// one conditional write: the status flip, the optional recorded cost, and
// the settlement applied to the assignee's profile.
type CompleteParams struct {
	ItemID            string
	WorkerID          string
	FromStatuses      []string
	ToStatus          string
	ActualCost        *float64
	Earnings          float64
	ResetAvailability bool
}

type DashboardCounts struct {
	Active         int `json:"active"`
	CompletedToday int `json:"completed_today"`
}

// Store is the record store the workflow runs against. Every mutating
// method is a conditional update: the write applies only if the stated
// predicate still holds at commit time, and a failed predicate surfaces as
// ErrClaimConflict, ErrNotAssignee or ErrInvalidTransition, never as a
// silent overwrite.
type Store interface {
	GetItem(ctx context.Context, itemID string) (*WorkItem, error)
	ClaimItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*WorkItem, error)
	ReleaseItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*WorkItem, error)
	StartItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*WorkItem, error)
	CompleteItem(ctx context.Context, p CompleteParams) (*WorkItem, error)
	ListAvailable(ctx context.Context, kind Kind) ([]WorkItem, error)
	ListByAssignee(ctx context.Context, workerID string, limit int) ([]WorkItem, error)

	GetWorker(ctx context.Context, workerID string) (*WorkerProfile, error)
	GetWorkerByIdentity(ctx context.Context, identityID string) (*WorkerProfile, error)
	SetWorkerAvailability(ctx context.Context, workerID, availability string) (*WorkerProfile, error)
	CountActiveAssignments(ctx context.Context, workerID string) (int, error)
	DashboardCounts(ctx context.Context, workerID string) (*DashboardCounts, error)

	AppendItemEvent(ctx context.Context, event WorkItemEvent) error
}

// EventPublisher receives workflow events after successful transitions.
// Publishing is fire-and-forget; a failed publish never fails the operation.
type EventPublisher interface {
	PublishItemEvent(ctx context.Context, event WorkItemEvent) error
}
