package models

import (
	"gorm.io/gorm"
)

// RequestStatus constants
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// PickupStatus constants. Meaningful only while the request is approved and
// the parent trip is started.
const (
	PickupStatusWaiting    = "waiting"
	PickupStatusPickedUp   = "picked_up"
	PickupStatusDroppedOff = "dropped_off"
)

// RideRequest represents a passenger's bid for a seat on a trip.
type RideRequest struct {
	gorm.Model
	TripID       uint   `json:"tripId" gorm:"not null;index"`
	Trip         *Trip  `json:"trip,omitempty" gorm:"foreignKey:TripID"`
	PassengerID  uint   `json:"passengerId" gorm:"not null;index"`
	Passenger    *User  `json:"passenger,omitempty" gorm:"foreignKey:PassengerID"`
	Status       string `json:"status" gorm:"not null;default:'pending'"`
	PickupStatus string `json:"pickupStatus" gorm:"not null;default:'waiting'"`
}

// TableName specifies the table name
func (RideRequest) TableName() string {
	return "ride_requests"
}

// IsActive reports whether the request still occupies or may claim a seat.
func (r *RideRequest) IsActive() bool {
	return r.Status == RequestStatusPending || r.Status == RequestStatusApproved
}
