package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/tripshare-backend/internal/services"
)

// TripWebSocket upgrades the connection and streams trip events to the
// caller. Access is checked before the upgrade so unauthorized callers get
// a plain HTTP error instead of an immediate close frame.
func TripWebSocket(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseID(c, "tripId")
		if !ok {
			return
		}

		userID := c.GetUint("userId")
		if err := hub.Authorize(c.Request.Context(), tripID, userID); err != nil {
			respondError(c, err)
			return
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, tripID, userID)
	}
}
