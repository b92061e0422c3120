package storage

import (
	"context"
	"errors"

	"github.com/chachabrian/tripshare-backend/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for trips, ride requests and users.
// The production implementation is backed by Postgres via gorm; tests use the
// in-memory implementation in this package.
type Store interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id uint) (*models.Trip, error)
	SaveTrip(ctx context.Context, trip *models.Trip) error
	ListTripsByStatus(ctx context.Context, status string) ([]models.Trip, error)

	CreateRideRequest(ctx context.Context, req *models.RideRequest) error
	GetRideRequest(ctx context.Context, id uint) (*models.RideRequest, error)
	SaveRideRequest(ctx context.Context, req *models.RideRequest) error
	RequestsByTrip(ctx context.Context, tripID uint) ([]models.RideRequest, error)

	// ApprovedCount returns the number of currently approved requests for
	// the trip. Callers that need it consistent with a subsequent write must
	// hold the trip lock.
	ApprovedCount(ctx context.Context, tripID uint) (int, error)

	// ActiveRequest returns the passenger's non-rejected request for the
	// trip, or (nil, nil) when there is none.
	ActiveRequest(ctx context.Context, tripID, passengerID uint) (*models.RideRequest, error)

	GetUser(ctx context.Context, id uint) (*models.User, error)
}
