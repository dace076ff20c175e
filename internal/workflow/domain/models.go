package domain

import "time"

type Kind string

const (
	KindDelivery Kind = "DELIVERY"
	KindService  Kind = "SERVICE"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleDriver   Role = "DRIVER"
	RoleMechanic Role = "MECHANIC"
	RoleAdmin    Role = "ADMIN"
)

// Work item statuses. Delivery items move PENDING -> CONFIRMED ->
// IN_PROGRESS -> DELIVERED, service requests REQUESTED -> CONFIRMED ->
// IN_PROGRESS -> COMPLETED. CANCELLED is reachable only from the initial
// unassigned status.
const (
	StatusPending    = "PENDING"
	StatusRequested  = "REQUESTED"
	StatusConfirmed  = "CONFIRMED"
	StatusInProgress = "IN_PROGRESS"
	StatusDelivered  = "DELIVERED"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// Worker availability.
const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityBusy        = "BUSY"
	AvailabilityOffline     = "OFFLINE"
	AvailabilityUnavailable = "UNAVAILABLE"
)

type WorkItem struct {
	ID          string
	Kind        Kind
	RequesterID string
	AssigneeID  *string
	Status      string
	Price       float64
	ActualCost  *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assigned reports whether the item currently has a claim holder.
func (w *WorkItem) Assigned() bool {
	return w.AssigneeID != nil
}

// AssignedTo reports whether workerID currently holds the claim.
func (w *WorkItem) AssignedTo(workerID string) bool {
	return w.AssigneeID != nil && *w.AssigneeID == workerID
}

type WorkerProfile struct {
	ID              string
	IdentityID      string
	Role            Role
	Availability    string
	AccruedEarnings float64
	Rating          float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type WorkItemEvent struct {
	ItemID    string                 `json:"item_id"`
	Kind      Kind                   `json:"kind"`
	EventType string                 `json:"event_type"`
	WorkerID  string                 `json:"worker_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Event types published on workflow transitions.
const (
	EventItemClaimed        = "ITEM_CLAIMED"
	EventItemReleased       = "ITEM_RELEASED"
	EventItemStarted        = "ITEM_STARTED"
	EventItemCompleted      = "ITEM_COMPLETED"
	EventAvailabilityChange = "AVAILABILITY_CHANGED"
)
