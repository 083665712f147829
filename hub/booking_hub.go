package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn   *websocket.Conn
	role   models.Role
	userID uint
	send   chan []byte
}

// canSee mirrors the read rule for a single booking: admins see everything,
// cleaners see open bookings and the ones assigned to them.
func (c *client) canSee(b *models.Booking) bool {
	switch c.role {
	case models.RoleAdmin:
		return true
	case models.RoleCleaner:
		return b.Status == models.BookingStatusPending || b.AssignedTo(c.userID)
	}
	return false
}

// writePump owns every write to the connection. A failed write closes the
// socket so the reader loop unregisters the client.
func (c *client) writePump() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("user_id", c.userID).Errorf("Error sending message to client: %v", err)
			c.conn.Close()
		}
	}
}

// BookingHub fans booking events out to connected console and app clients.
// It satisfies services.BookingNotifier.
type BookingHub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

func NewBookingHub() *BookingHub {
	return &BookingHub{clients: make(map[*websocket.Conn]*client)}
}

func (h *BookingHub) RegisterClient(conn *websocket.Conn, role models.Role, userID uint) {
	c := &client{conn: conn, role: role, userID: userID, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go c.writePump()
}

func (h *BookingHub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

// drop must be called with the mutex held.
func (h *BookingHub) drop(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
		conn.Close()
	}
}

func (h *BookingHub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// NotifyBooking delivers the event only to clients allowed to read the booking.
func (h *BookingHub) NotifyBooking(event string, booking *models.Booking) {
	h.publish(Message{Event: event, Data: booking}, func(c *client) bool { return c.canSee(booking) })
}

// Broadcast queues msg for every client.
func (h *BookingHub) Broadcast(msg Message) {
	h.publish(msg, func(*client) bool { return true })
}

// publish never blocks on a socket: a client whose queue is full is dropped.
func (h *BookingHub) publish(msg Message, include func(*client) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sent := 0
	for conn, c := range h.clients {
		if !include(c) {
			continue
		}
		select {
		case c.send <- data:
			sent++
		default:
			utils.ErrorLogger.WithField("user_id", c.userID).Error("Client send queue full, dropping connection")
			h.drop(conn)
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{"event": msg.Event, "clients": sent}).Debug("broadcasting")
}
