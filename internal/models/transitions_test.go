package models

import "testing"

func TestTripTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{TripStatusScheduled, TripStatusStarted, true},
		{TripStatusScheduled, TripStatusCancelled, true},
		{TripStatusScheduled, TripStatusCompleted, false},
		{TripStatusStarted, TripStatusCompleted, true},
		{TripStatusStarted, TripStatusCancelled, false},
		{TripStatusStarted, TripStatusScheduled, false},
		{TripStatusCompleted, TripStatusStarted, false},
		{TripStatusCancelled, TripStatusStarted, false},
		{"bogus", TripStatusStarted, false},
	}
	for _, tc := range cases {
		if got := CanTransitionTrip(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionTrip(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPickupTransitionsOnlyAdvance(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{PickupStatusWaiting, PickupStatusPickedUp, true},
		{PickupStatusPickedUp, PickupStatusDroppedOff, true},
		{PickupStatusWaiting, PickupStatusDroppedOff, false},
		{PickupStatusPickedUp, PickupStatusWaiting, false},
		{PickupStatusDroppedOff, PickupStatusPickedUp, false},
		{PickupStatusDroppedOff, PickupStatusWaiting, false},
	}
	for _, tc := range cases {
		if got := CanAdvancePickup(tc.from, tc.to); got != tc.want {
			t.Errorf("CanAdvancePickup(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		TripStatusScheduled: false,
		TripStatusStarted:   false,
		TripStatusCompleted: true,
		TripStatusCancelled: true,
	} {
		trip := Trip{Status: status}
		if got := trip.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestMaxSeatsFor(t *testing.T) {
	if got := MaxSeatsFor(VehicleTypeCar); got != 7 {
		t.Errorf("car seat ceiling = %d, want 7", got)
	}
	if got := MaxSeatsFor(VehicleTypeBike); got != 1 {
		t.Errorf("bike seat ceiling = %d, want 1", got)
	}
	if got := MaxSeatsFor("tractor"); got != 0 {
		t.Errorf("unknown vehicle seat ceiling = %d, want 0", got)
	}
}

func TestRideRequestIsActive(t *testing.T) {
	for status, want := range map[string]bool{
		RequestStatusPending:  true,
		RequestStatusApproved: true,
		RequestStatusRejected: false,
	} {
		req := RideRequest{Status: status}
		if got := req.IsActive(); got != want {
			t.Errorf("IsActive(%q) = %v, want %v", status, got, want)
		}
	}
}
