package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/chachabrian/tripshare-backend/internal/models"
)

// GormStore implements Store on top of a gorm Postgres connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return s.db.WithContext(ctx).Create(trip).Error
}

func (s *GormStore) GetTrip(ctx context.Context, id uint) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.WithContext(ctx).Preload("Driver").First(&trip, id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return &trip, nil
}

func (s *GormStore) SaveTrip(ctx context.Context, trip *models.Trip) error {
	return s.db.WithContext(ctx).Save(trip).Error
}

func (s *GormStore) ListTripsByStatus(ctx context.Context, status string) ([]models.Trip, error) {
	var trips []models.Trip
	if err := s.db.WithContext(ctx).Preload("Driver").
		Where("status = ?", status).
		Order("departure_time").
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (s *GormStore) CreateRideRequest(ctx context.Context, req *models.RideRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

func (s *GormStore) GetRideRequest(ctx context.Context, id uint) (*models.RideRequest, error) {
	var req models.RideRequest
	if err := s.db.WithContext(ctx).Preload("Passenger").First(&req, id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return &req, nil
}

func (s *GormStore) SaveRideRequest(ctx context.Context, req *models.RideRequest) error {
	return s.db.WithContext(ctx).Save(req).Error
}

func (s *GormStore) RequestsByTrip(ctx context.Context, tripID uint) ([]models.RideRequest, error) {
	var reqs []models.RideRequest
	if err := s.db.WithContext(ctx).Preload("Passenger").
		Where("trip_id = ?", tripID).
		Order("created_at").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (s *GormStore) ApprovedCount(ctx context.Context, tripID uint) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.RideRequest{}).
		Where("trip_id = ? AND status = ?", tripID, models.RequestStatusApproved).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) ActiveRequest(ctx context.Context, tripID, passengerID uint) (*models.RideRequest, error) {
	var req models.RideRequest
	err := s.db.WithContext(ctx).
		Where("trip_id = ? AND passenger_id = ? AND status <> ?",
			tripID, passengerID, models.RequestStatusRejected).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return &user, nil
}

func mapGormError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
