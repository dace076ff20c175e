package domain

import "testing"

func TestCanTransition_Delivery(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"claim", StatusPending, StatusConfirmed, true},
		{"cancel", StatusPending, StatusCancelled, true},
		{"start", StatusConfirmed, StatusInProgress, true},
		{"release", StatusConfirmed, StatusPending, true},
		{"deliver from confirmed", StatusConfirmed, StatusDelivered, true},
		{"deliver from in_progress", StatusInProgress, StatusDelivered, true},
		{"skip confirmed", StatusPending, StatusInProgress, false},
		{"deliver unclaimed", StatusPending, StatusDelivered, false},
		{"release in_progress", StatusInProgress, StatusPending, false},
		{"cancel claimed", StatusConfirmed, StatusCancelled, false},
		{"out of terminal", StatusDelivered, StatusPending, false},
		{"out of cancelled", StatusCancelled, StatusConfirmed, false},
		{"service label on delivery", StatusRequested, StatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(KindDelivery, tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(DELIVERY, %s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCanTransition_Service(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"claim", StatusRequested, StatusConfirmed, true},
		{"cancel", StatusRequested, StatusCancelled, true},
		{"start", StatusConfirmed, StatusInProgress, true},
		{"release", StatusConfirmed, StatusRequested, true},
		{"complete", StatusInProgress, StatusCompleted, true},
		{"complete without start", StatusConfirmed, StatusCompleted, false},
		{"skip confirmed", StatusRequested, StatusInProgress, false},
		{"out of terminal", StatusCompleted, StatusRequested, false},
		{"delivery label on service", StatusPending, StatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(KindService, tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(SERVICE, %s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	if got := InitialStatus(KindDelivery); got != StatusPending {
		t.Errorf("InitialStatus(DELIVERY) = %s", got)
	}
	if got := InitialStatus(KindService); got != StatusRequested {
		t.Errorf("InitialStatus(SERVICE) = %s", got)
	}
	if got := TerminalSuccess(KindDelivery); got != StatusDelivered {
		t.Errorf("TerminalSuccess(DELIVERY) = %s", got)
	}
	if got := TerminalSuccess(KindService); got != StatusCompleted {
		t.Errorf("TerminalSuccess(SERVICE) = %s", got)
	}
	if got := RequiredRole(KindDelivery); got != RoleDriver {
		t.Errorf("RequiredRole(DELIVERY) = %s", got)
	}
	if got := RequiredRole(KindService); got != RoleMechanic {
		t.Errorf("RequiredRole(SERVICE) = %s", got)
	}
}

func TestCompletableFrom(t *testing.T) {
	// A driver may deliver straight from CONFIRMED; a mechanic must start
	// the job first.
	delivery := CompletableFrom(KindDelivery)
	if len(delivery) != 2 || delivery[0] != StatusConfirmed || delivery[1] != StatusInProgress {
		t.Errorf("CompletableFrom(DELIVERY) = %v", delivery)
	}
	service := CompletableFrom(KindService)
	if len(service) != 1 || service[0] != StatusInProgress {
		t.Errorf("CompletableFrom(SERVICE) = %v", service)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusDelivered, StatusCompleted, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = false", status)
		}
	}
	for _, status := range []string{StatusPending, StatusRequested, StatusConfirmed, StatusInProgress} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%s) = true", status)
		}
	}
}

func TestValidAvailability(t *testing.T) {
	cases := []struct {
		role  Role
		value string
		want  bool
	}{
		{RoleDriver, AvailabilityAvailable, true},
		{RoleDriver, AvailabilityBusy, true},
		{RoleDriver, AvailabilityOffline, true},
		{RoleDriver, AvailabilityUnavailable, false},
		{RoleMechanic, AvailabilityAvailable, true},
		{RoleMechanic, AvailabilityUnavailable, true},
		{RoleMechanic, AvailabilityOffline, false},
		{RoleMechanic, AvailabilityBusy, false},
		{RoleCustomer, AvailabilityAvailable, false},
	}

	for _, tc := range cases {
		if got := ValidAvailability(tc.role, tc.value); got != tc.want {
			t.Errorf("ValidAvailability(%s, %s) = %v, want %v", tc.role, tc.value, got, tc.want)
		}
	}
}
