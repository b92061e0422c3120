package storage

import (
	"context"
	"sync"

	"github.com/chachabrian/tripshare-backend/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It hands out copies so
// callers never share the stored structs.
type MemoryStore struct {
	mu       sync.RWMutex
	trips    map[uint]models.Trip
	requests map[uint]models.RideRequest
	users    map[uint]models.User
	nextTrip uint
	nextReq  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips:    make(map[uint]models.Trip),
		requests: make(map[uint]models.RideRequest),
		users:    make(map[uint]models.User),
	}
}

// PutUser seeds an identity record. Users come from the auth collaborator,
// so the Store interface only reads them.
func (m *MemoryStore) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.ID == 0 {
		m.nextTrip++
		trip.ID = m.nextTrip
	} else if trip.ID > m.nextTrip {
		m.nextTrip = trip.ID
	}
	m.trips[trip.ID] = *trip
	return nil
}

func (m *MemoryStore) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) SaveTrip(ctx context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return ErrNotFound
	}
	m.trips[trip.ID] = *trip
	return nil
}

func (m *MemoryStore) ListTripsByStatus(ctx context.Context, status string) ([]models.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Trip
	for _, t := range m.trips {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateRideRequest(ctx context.Context, req *models.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == 0 {
		m.nextReq++
		req.ID = m.nextReq
	} else if req.ID > m.nextReq {
		m.nextReq = req.ID
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *MemoryStore) GetRideRequest(ctx context.Context, id uint) (*models.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) SaveRideRequest(ctx context.Context, req *models.RideRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; !ok {
		return ErrNotFound
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *MemoryStore) RequestsByTrip(ctx context.Context, tripID uint) ([]models.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RideRequest
	for _, r := range m.requests {
		if r.TripID == tripID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) ApprovedCount(ctx context.Context, tripID uint) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.requests {
		if r.TripID == tripID && r.Status == models.RequestStatusApproved {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ActiveRequest(ctx context.Context, tripID, passengerID uint) (*models.RideRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if r.TripID == tripID && r.PassengerID == passengerID && r.Status != models.RequestStatusRejected {
			req := r
			return &req, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
