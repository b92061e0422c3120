package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/internal/observability"
	"github.com/chachabrian/tripshare-backend/internal/storage"
	"github.com/chachabrian/tripshare-backend/pkg/utils"
)

// ErrValidation marks a malformed trip specification.
var ErrValidation = errors.New("invalid trip specification")

// LocationMirror receives accepted location samples for downstream pipelines.
type LocationMirror interface {
	PublishLocation(tripID uint, lat, lng float64, at time.Time) error
}

// TripInput is the trip creation record supplied by the trip-creation form.
type TripInput struct {
	SourceLat     float64   `json:"sourceLat"`
	SourceLng     float64   `json:"sourceLng"`
	SourceAddr    string    `json:"sourceAddress"`
	DestLat       float64   `json:"destLat"`
	DestLng       float64   `json:"destLng"`
	DestAddr      string    `json:"destAddress"`
	DepartureTime time.Time `json:"departureTime"`
	VehicleType   string    `json:"vehicleType"`
	TotalSeats    int       `json:"totalSeats"`
}

// TripView is a trip together with its derived seat availability and, while
// the trip is underway, the most recently computed ETA.
type TripView struct {
	Trip           *models.Trip `json:"trip"`
	AvailableSeats int          `json:"availableSeats"`
	ETA            *Estimate    `json:"eta,omitempty"`
}

// Event payloads.
type TripStatusPayload struct {
	TripID    uint       `json:"tripId"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

type TripCancelledPayload struct {
	TripID  uint   `json:"tripId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type LocationPayload struct {
	TripID     uint      `json:"tripId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recordedAt"`
	ETA        *Estimate `json:"eta,omitempty"`
}

// TripService owns the trip state machine and seat-capacity bookkeeping.
// Every mutation runs under the per-trip lock; violations leave the trip
// untouched.
type TripService struct {
	store  storage.Store
	hub    *Hub
	est    *Estimator
	cache  LocationCache  // optional
	mirror LocationMirror // optional
	locks  *TripLocks
	log    *logrus.Logger
}

func NewTripService(store storage.Store, hub *Hub, est *Estimator, cache LocationCache, mirror LocationMirror, locks *TripLocks, log *logrus.Logger) *TripService {
	return &TripService{
		store:  store,
		hub:    hub,
		est:    est,
		cache:  cache,
		mirror: mirror,
		locks:  locks,
		log:    log,
	}
}

// Create validates and stores a new scheduled trip for the driver.
func (s *TripService) Create(ctx context.Context, driverID uint, in TripInput) (*models.Trip, error) {
	maxSeats := models.MaxSeatsFor(in.VehicleType)
	if maxSeats == 0 {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, in.VehicleType)
	}
	if in.TotalSeats < 1 || in.TotalSeats > maxSeats {
		return nil, fmt.Errorf("%w: %s allows 1-%d seats, got %d",
			ErrValidation, in.VehicleType, maxSeats, in.TotalSeats)
	}
	if !utils.ValidLatLng(in.SourceLat, in.SourceLng) || !utils.ValidLatLng(in.DestLat, in.DestLng) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	if in.DepartureTime.IsZero() {
		return nil, fmt.Errorf("%w: departure time is required", ErrValidation)
	}

	trip := &models.Trip{
		DriverID:      driverID,
		SourceLat:     in.SourceLat,
		SourceLng:     in.SourceLng,
		SourceAddr:    in.SourceAddr,
		DestLat:       in.DestLat,
		DestLng:       in.DestLng,
		DestAddr:      in.DestAddr,
		DepartureTime: in.DepartureTime,
		VehicleType:   in.VehicleType,
		TotalSeats:    in.TotalSeats,
		Status:        models.TripStatusScheduled,
	}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"tripId": trip.ID, "driverId": driverID}).Info("trip created")
	return trip, nil
}

// Start moves a scheduled trip to started. Driver-only.
func (s *TripService) Start(ctx context.Context, tripID, actorID uint) (*models.Trip, error) {
	var trip *models.Trip
	err := s.withTrip(ctx, tripID, func(t *models.Trip) error {
		if t.DriverID != actorID {
			return ErrUnauthorized
		}
		if !models.CanTransitionTrip(t.Status, models.TripStatusStarted) {
			return ErrInvalidState
		}
		now := time.Now().UTC()
		t.Status = models.TripStatusStarted
		t.StartedAt = &now
		trip = t
		return s.store.SaveTrip(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(tripID, EventTripStatusUpdate, TripStatusPayload{
		TripID:    tripID,
		Status:    trip.Status,
		StartedAt: trip.StartedAt,
	})
	s.log.WithField("tripId", tripID).Info("trip started")
	return trip, nil
}

// Complete moves a started trip to completed. Approved requests that never
// reached dropped_off are left as-is; completion is driver-declared.
func (s *TripService) Complete(ctx context.Context, tripID, actorID uint) (*models.Trip, error) {
	var trip *models.Trip
	err := s.withTrip(ctx, tripID, func(t *models.Trip) error {
		if t.DriverID != actorID {
			return ErrUnauthorized
		}
		if !models.CanTransitionTrip(t.Status, models.TripStatusCompleted) {
			return ErrInvalidState
		}
		t.Status = models.TripStatusCompleted
		trip = t
		return s.store.SaveTrip(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	// The ETA only holds meaning while the trip is underway.
	if s.cache != nil {
		if err := s.cache.ClearTripETA(ctx, tripID); err != nil {
			s.log.WithError(err).WithField("tripId", tripID).Warn("failed to clear cached eta")
		}
	}

	s.hub.Publish(tripID, EventTripStatusUpdate, TripStatusPayload{
		TripID: tripID,
		Status: trip.Status,
	})
	s.log.WithField("tripId", tripID).Info("trip completed")
	return trip, nil
}

// Cancel cancels a scheduled trip and notifies every pending or approved
// request holder.
func (s *TripService) Cancel(ctx context.Context, tripID, actorID uint) (*models.Trip, error) {
	var trip *models.Trip
	err := s.withTrip(ctx, tripID, func(t *models.Trip) error {
		if t.DriverID != actorID {
			return ErrUnauthorized
		}
		if !models.CanTransitionTrip(t.Status, models.TripStatusCancelled) {
			return ErrInvalidState
		}
		t.Status = models.TripStatusCancelled
		trip = t
		return s.store.SaveTrip(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.ClearTripETA(ctx, tripID); err != nil {
			s.log.WithError(err).WithField("tripId", tripID).Warn("failed to clear cached eta")
		}
	}

	const reason = "Trip was cancelled by the driver"
	s.hub.Publish(tripID, EventTripCancelled, TripCancelledPayload{
		TripID:  tripID,
		Status:  trip.Status,
		Message: reason,
	})

	requests, err := s.store.RequestsByTrip(ctx, tripID)
	if err != nil {
		s.log.WithError(err).WithField("tripId", tripID).Warn("could not load requests for cancellation push")
		return trip, nil
	}
	for _, req := range requests {
		if !req.IsActive() {
			continue
		}
		passenger, err := s.store.GetUser(ctx, req.PassengerID)
		if err != nil || passenger.FCMToken == "" {
			continue
		}
		go func(token string) {
			if err := SendTripCancelledNotification(context.Background(), token, tripID, reason); err != nil {
				s.log.WithError(err).Warn("cancellation push failed")
			}
		}(passenger.FCMToken)
	}

	s.log.WithField("tripId", tripID).Info("trip cancelled")
	return trip, nil
}

// RecordLocation accepts a driver GPS sample for a started trip, persists it
// as the trip's current location, and publishes it to subscribers with a
// fresh ETA. The estimator runs outside the trip lock; a location event
// computed against a slightly stale destination is acceptable.
func (s *TripService) RecordLocation(ctx context.Context, tripID uint, lat, lng float64) (*LocationPayload, error) {
	if !utils.ValidLatLng(lat, lng) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}

	var destLat, destLng float64
	err := s.withTrip(ctx, tripID, func(t *models.Trip) error {
		if t.Status != models.TripStatusStarted {
			return ErrInvalidState
		}
		t.CurrentLat = &lat
		t.CurrentLng = &lng
		destLat, destLng = t.DestLat, t.DestLng
		return s.store.SaveTrip(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	observability.LocationUpdatesTotal.Inc()

	if s.cache != nil {
		if err := s.cache.SetTripLocation(ctx, tripID, lat, lng); err != nil {
			s.log.WithError(err).WithField("tripId", tripID).Warn("failed to cache location")
		}
	}

	payload := &LocationPayload{
		TripID:     tripID,
		Lat:        lat,
		Lng:        lng,
		RecordedAt: time.Now().UTC(),
	}

	// Routing failures degrade to the straight-line estimate inside the
	// estimator; an estimator error here only means unusable coordinates,
	// in which case the event simply carries no ETA.
	if s.est != nil {
		if est, err := s.est.Estimate(ctx, Coord{Lat: lat, Lng: lng}, Coord{Lat: destLat, Lng: destLng}); err == nil {
			payload.ETA = est
			if s.cache != nil {
				if err := s.cache.SetTripETA(ctx, tripID, est); err != nil {
					s.log.WithError(err).WithField("tripId", tripID).Warn("failed to cache eta")
				}
			}
		}
	}

	if s.mirror != nil {
		if err := s.mirror.PublishLocation(tripID, lat, lng, payload.RecordedAt); err != nil {
			s.log.WithError(err).WithField("tripId", tripID).Warn("location mirror publish failed")
		}
	}

	s.hub.Publish(tripID, EventLocationUpdate, payload)
	return payload, nil
}

// Get returns the trip with derived seat availability and, while started,
// the last computed ETA.
func (s *TripService) Get(ctx context.Context, tripID uint) (*TripView, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	approved, err := s.store.ApprovedCount(ctx, tripID)
	if err != nil {
		return nil, err
	}

	view := &TripView{Trip: trip, AvailableSeats: trip.TotalSeats - approved}
	if trip.Status == models.TripStatusStarted && s.cache != nil {
		if est, err := s.cache.GetTripETA(ctx, tripID); err == nil {
			view.ETA = est
		}
	}
	return view, nil
}

// ListOpen returns scheduled trips that still have free seats.
func (s *TripService) ListOpen(ctx context.Context) ([]TripView, error) {
	trips, err := s.store.ListTripsByStatus(ctx, models.TripStatusScheduled)
	if err != nil {
		return nil, err
	}

	views := make([]TripView, 0, len(trips))
	for i := range trips {
		trip := trips[i]
		approved, err := s.store.ApprovedCount(ctx, trip.ID)
		if err != nil {
			return nil, err
		}
		if available := trip.TotalSeats - approved; available > 0 {
			views = append(views, TripView{Trip: &trip, AvailableSeats: available})
		}
	}
	return views, nil
}

// withTrip runs fn on the freshly loaded trip under the trip's lock.
func (s *TripService) withTrip(ctx context.Context, tripID uint, fn func(*models.Trip) error) error {
	defer s.locks.Lock(tripID)()

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return mapStoreError(err)
	}
	return fn(trip)
}

func mapStoreError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
