package domain

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden action")
	ErrNotFound          = errors.New("work item not found")
	ErrWorkerNotFound    = errors.New("worker profile not found")
	ErrClaimConflict     = errors.New("item already claimed or no longer available")
	ErrNotAssignee       = errors.New("caller is not the current assignee")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrWorkerBusy        = errors.New("worker has an active assignment")
)
