package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/domain"
)

// Store is an in-memory record store with the same conditional-update
// semantics the Postgres adapter gets from the database: every mutation
// re-checks its predicate under the store lock, so a lost claim race is
// observed exactly the way a zero-rows UPDATE is.
type Store struct {
	mu      sync.Mutex
	items   map[string]domain.WorkItem
	workers map[string]domain.WorkerProfile
	events  []domain.WorkItemEvent
}

func NewStore() *Store {
	return &Store{
		items:   make(map[string]domain.WorkItem),
		workers: make(map[string]domain.WorkerProfile),
	}
}

// CreateItem seeds a new work item in its kind's initial status.
func (s *Store) CreateItem(kind domain.Kind, requesterID string, price float64) domain.WorkItem {
	id, _ := util.GenerateUUID()
	now := time.Now().UTC()
	item := domain.WorkItem{
		ID:          id,
		Kind:        kind,
		RequesterID: requesterID,
		Status:      domain.InitialStatus(kind),
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return item
}

// CreateWorker seeds a worker profile bound to an identity.
func (s *Store) CreateWorker(identityID string, role domain.Role) domain.WorkerProfile {
	id, _ := util.GenerateUUID()
	now := time.Now().UTC()
	worker := domain.WorkerProfile{
		ID:           id,
		IdentityID:   identityID,
		Role:         role,
		Availability: domain.AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[worker.ID] = worker
	return worker
}

func (s *Store) GetItem(ctx context.Context, itemID string) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (s *Store) ClaimItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if item.Status != fromStatus || item.AssigneeID != nil {
		return nil, domain.ErrClaimConflict
	}

	assignee := workerID
	item.AssigneeID = &assignee
	item.Status = toStatus
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return &item, nil
}

func (s *Store) ReleaseItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := assigneeCheck(&item, workerID); err != nil {
		return nil, err
	}
	if item.Status != fromStatus {
		return nil, domain.ErrInvalidTransition
	}

	item.AssigneeID = nil
	item.Status = toStatus
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return &item, nil
}

func (s *Store) StartItem(ctx context.Context, itemID, workerID, fromStatus, toStatus string) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := assigneeCheck(&item, workerID); err != nil {
		return nil, err
	}
	if item.Status != fromStatus {
		return nil, domain.ErrInvalidTransition
	}

	item.Status = toStatus
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return &item, nil
}

func (s *Store) CompleteItem(ctx context.Context, p domain.CompleteParams) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[p.ItemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := assigneeCheck(&item, p.WorkerID); err != nil {
		return nil, err
	}
	if !contains(p.FromStatuses, item.Status) {
		return nil, domain.ErrInvalidTransition
	}

	item.Status = p.ToStatus
	if p.ActualCost != nil {
		cost := *p.ActualCost
		item.ActualCost = &cost
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[p.ItemID] = item

	// Settlement is a second step under the same lock. The completion above
	// stays recorded even if the worker row has gone missing.
	if worker, ok := s.workers[p.WorkerID]; ok {
		worker.AccruedEarnings += p.Earnings
		if p.ResetAvailability {
			worker.Availability = domain.AvailabilityAvailable
		}
		worker.UpdatedAt = time.Now().UTC()
		s.workers[p.WorkerID] = worker
	}

	return &item, nil
}

func (s *Store) ListAvailable(ctx context.Context, kind domain.Kind) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WorkItem, 0)
	for _, item := range s.items {
		if item.Kind == kind && item.AssigneeID == nil && item.Status == domain.InitialStatus(kind) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListByAssignee(ctx context.Context, workerID string, limit int) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WorkItem, 0)
	for _, item := range s.items {
		if item.AssignedTo(workerID) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetWorker(ctx context.Context, workerID string) (*domain.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}
	return &worker, nil
}

func (s *Store) GetWorkerByIdentity(ctx context.Context, identityID string) (*domain.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, worker := range s.workers {
		if worker.IdentityID == identityID {
			w := worker
			return &w, nil
		}
	}
	return nil, domain.ErrWorkerNotFound
}

func (s *Store) SetWorkerAvailability(ctx context.Context, workerID, availability string) (*domain.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.workers[workerID]
	if !ok {
		return nil, domain.ErrWorkerNotFound
	}

	worker.Availability = availability
	worker.UpdatedAt = time.Now().UTC()
	s.workers[workerID] = worker
	return &worker, nil
}

func (s *Store) CountActiveAssignments(ctx context.Context, workerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		if item.AssignedTo(workerID) && !domain.IsTerminal(item.Status) {
			count++
		}
	}
	return count, nil
}

func (s *Store) DashboardCounts(ctx context.Context, workerID string) (*domain.DashboardCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := &domain.DashboardCounts{}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, item := range s.items {
		if !item.AssignedTo(workerID) {
			continue
		}
		switch {
		case !domain.IsTerminal(item.Status):
			counts.Active++
		case item.Status != domain.StatusCancelled && !item.UpdatedAt.Before(today):
			counts.CompletedToday++
		}
	}
	return counts, nil
}

func (s *Store) AppendItemEvent(ctx context.Context, event domain.WorkItemEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the appended event log.
func (s *Store) Events() []domain.WorkItemEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.WorkItemEvent, len(s.events))
	copy(out, s.events)
	return out
}

// assigneeCheck mirrors the psql adapter's zero-row disambiguation: a
// different holder is a NotAssignee failure, an unassigned item an invalid
// transition.
func assigneeCheck(item *domain.WorkItem, workerID string) error {
	if item.AssignedTo(workerID) {
		return nil
	}
	if item.Assigned() {
		return domain.ErrNotAssignee
	}
	return domain.ErrInvalidTransition
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
