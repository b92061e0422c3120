package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/internal/services"
)

// CreateTrip stores a new scheduled trip for the authenticated driver.
func CreateTrip(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can publish trips", "kind": "unauthorized"})
			return
		}

		var input struct {
			Source struct {
				Lat     float64 `json:"lat" binding:"required"`
				Lng     float64 `json:"lng" binding:"required"`
				Address string  `json:"address" binding:"required"`
			} `json:"source" binding:"required"`
			Destination struct {
				Lat     float64 `json:"lat" binding:"required"`
				Lng     float64 `json:"lng" binding:"required"`
				Address string  `json:"address" binding:"required"`
			} `json:"destination" binding:"required"`
			DepartureTime time.Time `json:"departureTime" binding:"required"`
			VehicleType   string    `json:"vehicleType" binding:"required"`
			TotalSeats    int       `json:"totalSeats" binding:"required"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := svc.Create(c.Request.Context(), driverID, services.TripInput{
			SourceLat:     input.Source.Lat,
			SourceLng:     input.Source.Lng,
			SourceAddr:    input.Source.Address,
			DestLat:       input.Destination.Lat,
			DestLng:       input.Destination.Lng,
			DestAddr:      input.Destination.Address,
			DepartureTime: input.DepartureTime,
			VehicleType:   input.VehicleType,
			TotalSeats:    input.TotalSeats,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, trip)
	}
}

// ListTrips returns scheduled trips that still have free seats.
func ListTrips(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.ListOpen(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"trips": views, "count": len(views)})
	}
}

// GetTrip returns one trip with seat availability and, while started, the
// latest ETA.
func GetTrip(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		view, err := svc.Get(c.Request.Context(), tripID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, view)
	}
}

// StartTrip moves a scheduled trip to started.
func StartTrip(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		trip, err := svc.Start(c.Request.Context(), tripID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Trip started", "tripId": trip.ID, "status": trip.Status})
	}
}

// CompleteTrip moves a started trip to completed.
func CompleteTrip(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		trip, err := svc.Complete(c.Request.Context(), tripID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Trip completed", "tripId": trip.ID, "status": trip.Status})
	}
}

// CancelTrip cancels a scheduled trip and notifies request holders.
func CancelTrip(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		trip, err := svc.Cancel(c.Request.Context(), tripID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Trip cancelled", "tripId": trip.ID, "status": trip.Status})
	}
}

// UpdateTripLocation accepts a driver GPS sample for a started trip. Real
// GPS and simulated cadence arrive through this same entry point.
func UpdateTripLocation(svc *services.TripService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		userType := c.GetString("userType")
		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can push locations", "kind": "unauthorized"})
			return
		}

		var input struct {
			Lat *float64 `json:"lat" binding:"required"`
			Lng *float64 `json:"lng" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Location pushes must come from the trip's own driver.
		view, err := svc.Get(c.Request.Context(), tripID)
		if err != nil {
			respondError(c, err)
			return
		}
		if view.Trip.DriverID != c.GetUint("userId") {
			respondError(c, services.ErrUnauthorized)
			return
		}

		payload, err := svc.RecordLocation(c.Request.Context(), tripID, *input.Lat, *input.Lng)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Location updated", "location": payload})
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}
