package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/tripshare-backend/internal/models"
	"github.com/chachabrian/tripshare-backend/internal/services"
)

// CreateRideRequest files a pending seat request on a scheduled trip.
func CreateRideRequest(svc *services.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		userType := c.GetString("userType")
		if userType != string(models.UserTypePassenger) {
			c.JSON(403, gin.H{"error": "Only passengers can request seats", "kind": "unauthorized"})
			return
		}

		req, err := svc.Request(c.Request.Context(), tripID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(201, req)
	}
}

// ListTripRequests returns all requests on a trip to its driver.
func ListTripRequests(svc *services.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		reqs, err := svc.ListForTrip(c.Request.Context(), tripID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"requests": reqs, "count": len(reqs)})
	}
}

// ApproveRequest grants the seat if capacity allows.
func ApproveRequest(svc *services.RequestService) gin.HandlerFunc {
	return decideRequest(svc, true)
}

// RejectRequest declines the request.
func RejectRequest(svc *services.RequestService) gin.HandlerFunc {
	return decideRequest(svc, false)
}

func decideRequest(svc *services.RequestService, approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, ok := parseID(c, "requestId")
		if !ok {
			return
		}

		req, err := svc.Decide(c.Request.Context(), requestID, c.GetUint("userId"), approve)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Request " + req.Status, "requestId": req.ID, "status": req.Status})
	}
}

// CancelRideRequest lets a passenger withdraw their own request while the
// trip is still scheduled.
func CancelRideRequest(svc *services.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, ok := parseID(c, "requestId")
		if !ok {
			return
		}

		req, err := svc.CancelByPassenger(c.Request.Context(), requestID, c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Request withdrawn", "requestId": req.ID, "status": req.Status})
	}
}

// MarkPickedUp records that the passenger boarded.
func MarkPickedUp(svc *services.RequestService) gin.HandlerFunc {
	return advancePickup(svc, true)
}

// MarkDroppedOff records that the passenger alighted.
func MarkDroppedOff(svc *services.RequestService) gin.HandlerFunc {
	return advancePickup(svc, false)
}

func advancePickup(svc *services.RequestService, pickup bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, ok := parseID(c, "requestId")
		if !ok {
			return
		}

		var req *models.RideRequest
		var err error
		if pickup {
			req, err = svc.MarkPickedUp(c.Request.Context(), requestID, c.GetUint("userId"))
		} else {
			req, err = svc.MarkDroppedOff(c.Request.Context(), requestID, c.GetUint("userId"))
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"message":      "Pickup status updated",
			"requestId":    req.ID,
			"pickupStatus": req.PickupStatus,
		})
	}
}
