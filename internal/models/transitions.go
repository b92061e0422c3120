package models

// tripTransitions is the allowed status graph for trips. Terminal states
// have no outgoing edges.
var tripTransitions = map[string][]string{
	TripStatusScheduled: {TripStatusStarted, TripStatusCancelled},
	TripStatusStarted:   {TripStatusCompleted},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// pickupTransitions only ever advances, never backward.
var pickupTransitions = map[string][]string{
	PickupStatusWaiting:    {PickupStatusPickedUp},
	PickupStatusPickedUp:   {PickupStatusDroppedOff},
	PickupStatusDroppedOff: {},
}

// CanTransitionTrip reports whether from -> to is an allowed trip status
// transition.
func CanTransitionTrip(from, to string) bool {
	return contains(tripTransitions[from], to)
}

// CanAdvancePickup reports whether from -> to is an allowed pickup status
// transition.
func CanAdvancePickup(from, to string) bool {
	return contains(pickupTransitions[from], to)
}

func contains(allowed []string, to string) bool {
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
