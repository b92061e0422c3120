package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/chachabrian/tripshare-backend/internal/observability"
	"github.com/chachabrian/tripshare-backend/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Event kinds published on a trip topic.
const (
	EventLocationUpdate      = "location_update"
	EventTripStatusUpdate    = "trip_status_update"
	EventTripCancelled       = "trip_cancelled"
	EventRideRequestCreated  = "ride_request_created"
	EventRideRequestDecided  = "ride_request_decided"
	EventPickupStatusChanged = "pickup_status_changed"
)

// Event is the envelope every subscriber receives.
type Event struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	TripID uint        `json:"tripId"`
	SentAt time.Time   `json:"sentAt"`
	Data   interface{} `json:"data"`
}

// Client represents one subscriber connection to a trip topic.
type Client struct {
	UserID uint
	TripID uint
	Send   chan []byte
	conn   *websocket.Conn
	hub    *Hub
}

// NewClient builds a connectionless client. Used by in-process subscribers
// and tests; websocket connections get a client from HandleWebSocket.
func NewClient(userID uint, buffer int) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, buffer)}
}

// Hub maintains per-trip subscriber sets and fans events out to them.
// Delivery is best-effort and at-most-once; the hub keeps no history, so a
// reconnecting subscriber re-fetches current state over HTTP.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool
	store storage.Store
	log   *logrus.Logger
}

func NewHub(store storage.Store, log *logrus.Logger) *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Client]bool),
		store: store,
		log:   log,
	}
}

// Authorize checks that the user may watch the trip: its driver, or a
// passenger holding a non-rejected request.
func (h *Hub) Authorize(ctx context.Context, tripID, userID uint) error {
	trip, err := h.store.GetTrip(ctx, tripID)
	if err != nil {
		if err == storage.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	if trip.DriverID == userID {
		return nil
	}
	req, err := h.store.ActiveRequest(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrUnauthorized
	}
	return nil
}

// Subscribe adds the client to the trip's topic. Registration is synchronous
// under the registry lock, so a publish issued after Subscribe returns is
// guaranteed to reach the client.
func (h *Hub) Subscribe(ctx context.Context, tripID uint, client *Client) error {
	if err := h.Authorize(ctx, tripID, client.UserID); err != nil {
		return err
	}

	h.mu.Lock()
	room, ok := h.rooms[tripID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[tripID] = room
	}
	room[client] = true
	client.TripID = tripID
	client.hub = h
	h.mu.Unlock()

	observability.TripSubscribers.Inc()
	h.log.WithFields(logrus.Fields{"tripId": tripID, "userId": client.UserID}).
		Info("subscriber connected")
	return nil
}

// Unsubscribe removes the client. Safe to call more than once.
func (h *Hub) Unsubscribe(tripID uint, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[tripID]
	if ok {
		if _, present := room[client]; present {
			delete(room, client)
			close(client.Send)
			observability.TripSubscribers.Dec()
		}
		if len(room) == 0 {
			delete(h.rooms, tripID)
		}
	}
	h.mu.Unlock()
}

// Publish fans an event out to every current subscriber of the trip.
// Publishing to a trip with no subscribers is a no-op. A subscriber whose
// buffer is full loses this event rather than blocking the publisher.
func (h *Hub) Publish(tripID uint, eventType string, data interface{}) {
	event := Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		TripID: tripID,
		SentAt: time.Now().UTC(),
		Data:   data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).WithField("type", eventType).Error("failed to marshal event")
		return
	}

	observability.EventsPublished.WithLabelValues(eventType).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[tripID] {
		select {
		case client.Send <- payload:
		default:
			h.log.WithFields(logrus.Fields{"tripId": tripID, "userId": client.UserID}).
				Warn("subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of clients watching the trip.
func (h *Hub) SubscriberCount(tripID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tripID])
}

// HandleWebSocket upgrades the request and attaches the connection to the
// trip's topic.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, tripID, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 256),
		conn:   conn,
	}

	if err := hub.Subscribe(r.Context(), tripID, client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection until it closes, then unsubscribes. Inbound
// frames carry no meaning on this topic; state changes go through HTTP.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.TripID, c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

// writePump pumps events from the topic to the websocket connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.Send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.hub.log.WithError(err).Debug("websocket write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
