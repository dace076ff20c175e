package domain

// Per-kind transition tables. Anything not enumerated here is forbidden,
// including every transition out of a terminal status.
var deliveryTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusDelivered, StatusPending},
	StatusInProgress: {StatusDelivered},
}

var serviceTransitions = map[string][]string{
	StatusRequested:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusRequested},
	StatusInProgress: {StatusCompleted},
}

func transitions(kind Kind) map[string][]string {
	if kind == KindService {
		return serviceTransitions
	}
	return deliveryTransitions
}

// CanTransition reports whether the kind's state machine enumerates
// from -> to.
func CanTransition(kind Kind, from, to string) bool {
	for _, next := range transitions(kind)[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InitialStatus is the unassigned status new items of the kind carry; an
// item is in the available pool iff it has this status and no assignee.
func InitialStatus(kind Kind) string {
	if kind == KindService {
		return StatusRequested
	}
	return StatusPending
}

// TerminalSuccess is the status Complete moves the item to.
func TerminalSuccess(kind Kind) string {
	if kind == KindService {
		return StatusCompleted
	}
	return StatusDelivered
}

func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCompleted || status == StatusCancelled
}

// CompletableFrom lists the assigned statuses Complete accepts as its
// source. Drivers may deliver straight from CONFIRMED; mechanics must
// start the job first.
func CompletableFrom(kind Kind) []string {
	if kind == KindService {
		return []string{StatusInProgress}
	}
	return []string{StatusConfirmed, StatusInProgress}
}

// RequiredRole is the worker role allowed to operate on items of the kind.
func RequiredRole(kind Kind) Role {
	if kind == KindService {
		return RoleMechanic
	}
	return RoleDriver
}

// BusyAvailability is the availability a worker of the role carries while
// holding an active delivery claim.
func BusyAvailability(role Role) string {
	if role == RoleMechanic {
		return AvailabilityUnavailable
	}
	return AvailabilityBusy
}

// ValidAvailability reports whether value is a legal availability for the
// role. Drivers have a three-state availability, mechanics two.
func ValidAvailability(role Role, value string) bool {
	switch role {
	case RoleDriver:
		return value == AvailabilityAvailable || value == AvailabilityBusy || value == AvailabilityOffline
	case RoleMechanic:
		return value == AvailabilityAvailable || value == AvailabilityUnavailable
	}
	return false
}
