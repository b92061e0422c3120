package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/internal/storage"
)

// fixture wires the services against an in-memory store. The estimator and
// cache are left nil unless a test supplies them.
type fixture struct {
	store *storage.MemoryStore
	hub   *Hub
	locks *TripLocks
	trips *TripService
	reqs  *RequestService
}

func newFixture() *fixture {
	store := storage.NewMemoryStore()
	log := testLogger()
	hub := NewHub(store, log)
	locks := NewTripLocks()
	return &fixture{
		store: store,
		hub:   hub,
		locks: locks,
		trips: NewTripService(store, hub, nil, nil, nil, locks, log),
		reqs:  NewRequestService(store, hub, locks, log),
	}
}

func validInput() TripInput {
	return TripInput{
		SourceLat:     5.6037,
		SourceLng:     -0.1870,
		SourceAddr:    "Accra Mall",
		DestLat:       5.6500,
		DestLng:       -0.2000,
		DestAddr:      "Achimota",
		DepartureTime: time.Now().Add(time.Hour),
		VehicleType:   models.VehicleTypeCar,
		TotalSeats:    3,
	}
}

func mustCreateTrip(t *testing.T, f *fixture, driverID uint) *models.Trip {
	t.Helper()
	trip, err := f.trips.Create(context.Background(), driverID, validInput())
	if err != nil {
		t.Fatalf("Create trip: %v", err)
	}
	return trip
}

func mustRequest(t *testing.T, f *fixture, tripID, passengerID uint) *models.RideRequest {
	t.Helper()
	req, err := f.reqs.Request(context.Background(), tripID, passengerID)
	if err != nil {
		t.Fatalf("Request seat: %v", err)
	}
	return req
}

func subscribe(t *testing.T, f *fixture, tripID, userID uint) *Client {
	t.Helper()
	c := NewClient(userID, 16)
	if err := f.hub.Subscribe(context.Background(), tripID, c); err != nil {
		t.Fatalf("Subscribe user %d to trip %d: %v", userID, tripID, err)
	}
	return c
}

func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatal("subscriber channel closed")
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

// memCache is an in-process LocationCache for tests.
type memCache struct {
	mu        sync.Mutex
	etas      map[uint]*Estimate
	locations map[uint][2]float64
}

func newMemCache() *memCache {
	return &memCache{etas: make(map[uint]*Estimate), locations: make(map[uint][2]float64)}
}

func (c *memCache) SetTripLocation(ctx context.Context, tripID uint, lat, lng float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locations[tripID] = [2]float64{lat, lng}
	return nil
}

func (c *memCache) SetTripETA(ctx context.Context, tripID uint, est *Estimate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.etas[tripID] = est
	return nil
}

func (c *memCache) GetTripETA(ctx context.Context, tripID uint) (*Estimate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.etas[tripID], nil
}

func (c *memCache) ClearTripETA(ctx context.Context, tripID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.etas, tripID)
	return nil
}

func TestCreateTripValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*TripInput)
	}{
		{"unknown vehicle", func(in *TripInput) { in.VehicleType = "boat" }},
		{"car over seat limit", func(in *TripInput) { in.TotalSeats = 8 }},
		{"zero seats", func(in *TripInput) { in.TotalSeats = 0 }},
		{"bike with two seats", func(in *TripInput) { in.VehicleType = models.VehicleTypeBike; in.TotalSeats = 2 }},
		{"latitude out of range", func(in *TripInput) { in.SourceLat = 95 }},
		{"longitude out of range", func(in *TripInput) { in.DestLng = -200 }},
		{"missing departure", func(in *TripInput) { in.DepartureTime = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := f.trips.Create(ctx, 1, in); !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestTripLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	if trip.Status != models.TripStatusScheduled {
		t.Fatalf("new trip status = %q, want scheduled", trip.Status)
	}

	started, err := f.trips.Start(ctx, trip.ID, 1)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != models.TripStatusStarted {
		t.Errorf("status = %q, want started", started.Status)
	}
	if started.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	done, err := f.trips.Complete(ctx, trip.ID, 1)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != models.TripStatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
}

func TestTripLifecycleRejectsNonDriver(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	if _, err := f.trips.Start(ctx, trip.ID, 2); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Start by stranger: got %v, want ErrUnauthorized", err)
	}
	if _, err := f.trips.Cancel(ctx, trip.ID, 2); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Cancel by stranger: got %v, want ErrUnauthorized", err)
	}

	got, err := f.store.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TripStatusScheduled {
		t.Errorf("status changed to %q after rejected calls", got.Status)
	}
}

func TestTripInvalidTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	// Complete before start.
	if _, err := f.trips.Complete(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Complete scheduled: got %v, want ErrInvalidState", err)
	}

	if _, err := f.trips.Start(ctx, trip.ID, 1); err != nil {
		t.Fatal(err)
	}
	// Start twice.
	if _, err := f.trips.Start(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start started: got %v, want ErrInvalidState", err)
	}
	// Cancel after departure.
	if _, err := f.trips.Cancel(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Cancel started: got %v, want ErrInvalidState", err)
	}

	if _, err := f.trips.Complete(ctx, trip.ID, 1); err != nil {
		t.Fatal(err)
	}
	// Terminal states stay terminal.
	if _, err := f.trips.Start(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start completed: got %v, want ErrInvalidState", err)
	}
	if _, err := f.trips.Cancel(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Cancel completed: got %v, want ErrInvalidState", err)
	}
}

func TestTripNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.trips.Start(ctx, 99, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Start missing trip: got %v, want ErrNotFound", err)
	}
	if _, err := f.trips.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing trip: got %v, want ErrNotFound", err)
	}
}

func TestCancelNotifiesRequestHolders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	mustRequest(t, f, trip.ID, 2)
	approvedReq := mustRequest(t, f, trip.ID, 3)
	if _, err := f.reqs.Decide(ctx, approvedReq.ID, 1, true); err != nil {
		t.Fatal(err)
	}

	pendingClient := subscribe(t, f, trip.ID, 2)
	approvedClient := subscribe(t, f, trip.ID, 3)
	drainRequestEvents := func(c *Client) {
		for len(c.Send) > 0 {
			<-c.Send
		}
	}
	drainRequestEvents(pendingClient)
	drainRequestEvents(approvedClient)

	if _, err := f.trips.Cancel(ctx, trip.ID, 1); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	for _, c := range []*Client{pendingClient, approvedClient} {
		ev := recvEvent(t, c)
		if ev.Type != EventTripCancelled {
			t.Errorf("user %d got event %q, want %q", c.UserID, ev.Type, EventTripCancelled)
		}
	}

	// The cancelled trip is terminal.
	if _, err := f.trips.Start(ctx, trip.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Start cancelled: got %v, want ErrInvalidState", err)
	}
}

func TestRecordLocationRequiresStartedTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	if _, err := f.trips.RecordLocation(ctx, trip.ID, 5.61, -0.19); !errors.Is(err, ErrInvalidState) {
		t.Errorf("RecordLocation on scheduled: got %v, want ErrInvalidState", err)
	}
	if _, err := f.trips.RecordLocation(ctx, trip.ID, 95, -0.19); !errors.Is(err, ErrValidation) {
		t.Errorf("RecordLocation bad coords: got %v, want ErrValidation", err)
	}
	if _, err := f.trips.RecordLocation(ctx, 99, 5.61, -0.19); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordLocation missing trip: got %v, want ErrNotFound", err)
	}
}

func TestRecordLocationPublishesWithETA(t *testing.T) {
	srv := osrmStub(t, `{"code":"Ok","routes":[{"duration":600,"distance":5000}]}`)
	defer srv.Close()

	store := storage.NewMemoryStore()
	log := testLogger()
	hub := NewHub(store, log)
	locks := NewTripLocks()
	cache := newMemCache()
	est := NewEstimator(srv.URL, time.Second, 40, log)
	trips := NewTripService(store, hub, est, cache, nil, locks, log)
	reqs := NewRequestService(store, hub, locks, log)
	f := &fixture{store: store, hub: hub, locks: locks, trips: trips, reqs: reqs}

	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)
	req := mustRequest(t, f, trip.ID, 2)
	if _, err := reqs.Decide(ctx, req.ID, 1, true); err != nil {
		t.Fatal(err)
	}
	if _, err := trips.Start(ctx, trip.ID, 1); err != nil {
		t.Fatal(err)
	}

	passenger := subscribe(t, f, trip.ID, 2)

	payload, err := trips.RecordLocation(ctx, trip.ID, 5.61, -0.19)
	if err != nil {
		t.Fatalf("RecordLocation: %v", err)
	}
	if payload.ETA == nil {
		t.Fatal("payload carries no ETA")
	}
	if payload.ETA.ETAText != "10 min" {
		t.Errorf("ETAText = %q, want %q", payload.ETA.ETAText, "10 min")
	}

	ev := recvEvent(t, passenger)
	if ev.Type != EventLocationUpdate {
		t.Fatalf("event type = %q, want %q", ev.Type, EventLocationUpdate)
	}

	// The trip view exposes the cached ETA while underway.
	view, err := trips.Get(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.ETA == nil || view.ETA.ETAText != "10 min" {
		t.Errorf("view ETA = %+v, want cached 10 min", view.ETA)
	}

	// Completion retires the cached ETA.
	if _, err := trips.Complete(ctx, trip.ID, 1); err != nil {
		t.Fatal(err)
	}
	if got, _ := cache.GetTripETA(ctx, trip.ID); got != nil {
		t.Error("cached ETA survived completion")
	}
}

func TestGetReportsSeatAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := mustCreateTrip(t, f, 1)

	view, err := f.trips.Get(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.AvailableSeats != 3 {
		t.Errorf("AvailableSeats = %d, want 3", view.AvailableSeats)
	}

	req := mustRequest(t, f, trip.ID, 2)
	if _, err := f.reqs.Decide(ctx, req.ID, 1, true); err != nil {
		t.Fatal(err)
	}

	view, err = f.trips.Get(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.AvailableSeats != 2 {
		t.Errorf("AvailableSeats after approval = %d, want 2", view.AvailableSeats)
	}
}

func TestListOpenSkipsFullAndNonScheduled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	open := mustCreateTrip(t, f, 1)

	full, err := f.trips.Create(ctx, 1, func() TripInput {
		in := validInput()
		in.VehicleType = models.VehicleTypeBike
		in.TotalSeats = 1
		return in
	}())
	if err != nil {
		t.Fatal(err)
	}
	req := mustRequest(t, f, full.ID, 2)
	if _, err := f.reqs.Decide(ctx, req.ID, 1, true); err != nil {
		t.Fatal(err)
	}

	started := mustCreateTrip(t, f, 3)
	if _, err := f.trips.Start(ctx, started.ID, 3); err != nil {
		t.Fatal(err)
	}

	views, err := f.trips.ListOpen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].Trip.ID != open.ID {
		t.Errorf("ListOpen returned %d trips, want only trip %d", len(views), open.ID)
	}
}
