package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/internal/storage"
)

// RequestEventPayload describes a ride-request state change on the trip topic.
type RequestEventPayload struct {
	RequestID    uint   `json:"requestId"`
	TripID       uint   `json:"tripId"`
	PassengerID  uint   `json:"passengerId"`
	Status       string `json:"status"`
	PickupStatus string `json:"pickupStatus,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// RequestService owns the per-passenger request state machine and enforces
// the seat-capacity invariant. The approved count is always re-read under
// the trip lock at decision time, never trusted from when the request was
// filed.
type RequestService struct {
	store storage.Store
	hub   *Hub
	locks *TripLocks
	log   *logrus.Logger
}

func NewRequestService(store storage.Store, hub *Hub, locks *TripLocks, log *logrus.Logger) *RequestService {
	return &RequestService{store: store, hub: hub, locks: locks, log: log}
}

// Request files a pending seat request for the passenger.
func (s *RequestService) Request(ctx context.Context, tripID, passengerID uint) (*models.RideRequest, error) {
	defer s.locks.Lock(tripID)()

	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if trip.DriverID == passengerID {
		return nil, ErrUnauthorized
	}

	existing, err := s.store.ActiveRequest(ctx, tripID, passengerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	if trip.Status != models.TripStatusScheduled {
		return nil, ErrInvalidState
	}

	approved, err := s.store.ApprovedCount(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if approved >= trip.TotalSeats {
		return nil, ErrFull
	}

	req := &models.RideRequest{
		TripID:       tripID,
		PassengerID:  passengerID,
		Status:       models.RequestStatusPending,
		PickupStatus: models.PickupStatusWaiting,
	}
	if err := s.store.CreateRideRequest(ctx, req); err != nil {
		return nil, err
	}

	s.hub.Publish(tripID, EventRideRequestCreated, RequestEventPayload{
		RequestID:   req.ID,
		TripID:      tripID,
		PassengerID: passengerID,
		Status:      req.Status,
	})
	s.log.WithFields(logrus.Fields{"tripId": tripID, "passengerId": passengerID, "requestId": req.ID}).
		Info("ride request filed")
	return req, nil
}

// Decide approves or rejects a pending request. Only the trip's driver may
// decide; approval re-checks seat capacity atomically against concurrent
// approvals on the same trip.
func (s *RequestService) Decide(ctx context.Context, requestID, actorID uint, approve bool) (*models.RideRequest, error) {
	req, err := s.withRequest(ctx, requestID, func(req *models.RideRequest, trip *models.Trip) error {
		if trip.DriverID != actorID {
			return ErrUnauthorized
		}
		if req.Status != models.RequestStatusPending {
			return ErrInvalidState
		}

		if approve {
			approved, err := s.store.ApprovedCount(ctx, trip.ID)
			if err != nil {
				return err
			}
			if approved >= trip.TotalSeats {
				return ErrFull
			}
			req.Status = models.RequestStatusApproved
			req.PickupStatus = models.PickupStatusWaiting
		} else {
			req.Status = models.RequestStatusRejected
		}
		return s.store.SaveRideRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(req.TripID, EventRideRequestDecided, RequestEventPayload{
		RequestID:   req.ID,
		TripID:      req.TripID,
		PassengerID: req.PassengerID,
		Status:      req.Status,
	})
	s.notifyDecision(ctx, req)

	s.log.WithFields(logrus.Fields{"requestId": req.ID, "status": req.Status}).
		Info("ride request decided")
	return req, nil
}

// CancelByPassenger withdraws the passenger's own request while the trip is
// still scheduled, freeing the seat if it had been approved.
func (s *RequestService) CancelByPassenger(ctx context.Context, requestID, actorID uint) (*models.RideRequest, error) {
	req, err := s.withRequest(ctx, requestID, func(req *models.RideRequest, trip *models.Trip) error {
		if req.PassengerID != actorID {
			return ErrUnauthorized
		}
		if trip.Status != models.TripStatusScheduled {
			return ErrInvalidState
		}
		if !req.IsActive() {
			return ErrInvalidState
		}
		req.Status = models.RequestStatusRejected
		return s.store.SaveRideRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(req.TripID, EventRideRequestDecided, RequestEventPayload{
		RequestID:   req.ID,
		TripID:      req.TripID,
		PassengerID: req.PassengerID,
		Status:      req.Status,
		Reason:      "withdrawn by passenger",
	})
	s.log.WithField("requestId", req.ID).Info("ride request withdrawn")
	return req, nil
}

// MarkPickedUp records that the passenger boarded. Driver-only, trip must
// be underway.
func (s *RequestService) MarkPickedUp(ctx context.Context, requestID, actorID uint) (*models.RideRequest, error) {
	return s.advancePickup(ctx, requestID, actorID, models.PickupStatusPickedUp)
}

// MarkDroppedOff records that the passenger alighted.
func (s *RequestService) MarkDroppedOff(ctx context.Context, requestID, actorID uint) (*models.RideRequest, error) {
	return s.advancePickup(ctx, requestID, actorID, models.PickupStatusDroppedOff)
}

func (s *RequestService) advancePickup(ctx context.Context, requestID, actorID uint, target string) (*models.RideRequest, error) {
	req, err := s.withRequest(ctx, requestID, func(req *models.RideRequest, trip *models.Trip) error {
		if trip.DriverID != actorID {
			return ErrUnauthorized
		}
		if req.Status != models.RequestStatusApproved {
			return ErrInvalidState
		}
		if trip.Status != models.TripStatusStarted {
			return ErrInvalidState
		}
		if !models.CanAdvancePickup(req.PickupStatus, target) {
			return ErrInvalidState
		}
		req.PickupStatus = target
		return s.store.SaveRideRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(req.TripID, EventPickupStatusChanged, RequestEventPayload{
		RequestID:    req.ID,
		TripID:       req.TripID,
		PassengerID:  req.PassengerID,
		Status:       req.Status,
		PickupStatus: req.PickupStatus,
	})
	s.log.WithFields(logrus.Fields{"requestId": req.ID, "pickupStatus": req.PickupStatus}).
		Info("pickup status advanced")
	return req, nil
}

// ListForTrip returns all requests on the trip. Driver-only.
func (s *RequestService) ListForTrip(ctx context.Context, tripID, actorID uint) ([]models.RideRequest, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if trip.DriverID != actorID {
		return nil, ErrUnauthorized
	}
	return s.store.RequestsByTrip(ctx, tripID)
}

// withRequest loads the request, takes its trip's lock, re-reads both
// records under the lock and runs fn. The re-read matters: the request may
// have been decided between the unlocked lookup and lock acquisition.
func (s *RequestService) withRequest(ctx context.Context, requestID uint, fn func(*models.RideRequest, *models.Trip) error) (*models.RideRequest, error) {
	peek, err := s.store.GetRideRequest(ctx, requestID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	defer s.locks.Lock(peek.TripID)()

	req, err := s.store.GetRideRequest(ctx, requestID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	trip, err := s.store.GetTrip(ctx, req.TripID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if err := fn(req, trip); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *RequestService) notifyDecision(ctx context.Context, req *models.RideRequest) {
	passenger, err := s.store.GetUser(ctx, req.PassengerID)
	if err != nil || passenger.FCMToken == "" {
		return
	}
	approved := req.Status == models.RequestStatusApproved
	go func(token string, requestID uint) {
		if err := SendRequestDecidedNotification(context.Background(), token, requestID, approved); err != nil {
			s.log.WithError(err).Warn("decision push failed")
		}
	}(passenger.FCMToken, req.ID)
}
