package models

import (
	"time"

	"gorm.io/gorm"
)

// VehicleType constants
const (
	VehicleTypeCar  = "car"
	VehicleTypeBike = "bike"
)

// TripStatus constants
const (
	TripStatusScheduled = "scheduled"
	TripStatusStarted   = "started"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

// Trip represents a driver-offered journey with fixed seats and schedule.
type Trip struct {
	gorm.Model
	DriverID      uint       `json:"driverId" gorm:"not null"`
	Driver        *User      `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	SourceLat     float64    `json:"sourceLat" gorm:"not null"`
	SourceLng     float64    `json:"sourceLng" gorm:"not null"`
	SourceAddr    string     `json:"sourceAddress" gorm:"not null"`
	DestLat       float64    `json:"destLat" gorm:"not null"`
	DestLng       float64    `json:"destLng" gorm:"not null"`
	DestAddr      string     `json:"destAddress" gorm:"not null"`
	DepartureTime time.Time  `json:"departureTime" gorm:"not null"`
	VehicleType   string     `json:"vehicleType" gorm:"not null;default:'car'"`
	TotalSeats    int        `json:"totalSeats" gorm:"not null"`
	Status        string     `json:"status" gorm:"not null;default:'scheduled'"`
	CurrentLat    *float64   `json:"currentLat,omitempty"`
	CurrentLng    *float64   `json:"currentLng,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
}

// TableName specifies the table name
func (Trip) TableName() string {
	return "trips"
}

// IsTerminal reports whether the trip can no longer change state.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

// MaxSeatsFor returns the seat ceiling for a vehicle type, or 0 for an
// unknown type.
func MaxSeatsFor(vehicleType string) int {
	switch vehicleType {
	case VehicleTypeCar:
		return 7
	case VehicleTypeBike:
		return 1
	default:
		return 0
	}
}
