package services

import "sync"

// TripLocks serializes all mutating operations per trip id. Operations on
// different trips never contend.
type TripLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[uint]*sync.Mutex)}
}

// Lock acquires the lock for the trip and returns the unlock function:
//
//	defer locks.Lock(tripID)()
func (t *TripLocks) Lock(tripID uint) func() {
	t.mu.Lock()
	l, ok := t.locks[tripID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[tripID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
