package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cleanmate-app/models"
)

type feedMessage struct {
	Event string         `json:"event"`
	Data  models.Booking `json:"data"`
}

// dial connects a client registered as role/userID and waits for registration.
func dial(t *testing.T, h *BookingHub, role models.Role, userID uint) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.RegisterClient(conn, role, userID)
		registered <- struct{}{}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.UnregisterClient(conn)
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) feedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg feedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestBookingHub_Broadcast(t *testing.T) {
	h := NewBookingHub()
	client := dial(t, h, models.RoleCleaner, 4)
	assert.Equal(t, 1, h.ClientCount())

	cleanerID := uint(4)
	h.NotifyBooking("booking_accepted", &models.Booking{ID: 9, CleanerID: &cleanerID, Status: models.BookingStatusAccepted})

	msg := read(t, client)
	assert.Equal(t, "booking_accepted", msg.Event)
	assert.Equal(t, uint(9), msg.Data.ID)
	assert.Equal(t, models.BookingStatusAccepted, msg.Data.Status)

	client.Close()
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBookingHub_NotifyBookingVisibility(t *testing.T) {
	h := NewBookingHub()
	assigned := dial(t, h, models.RoleCleaner, 4)
	other := dial(t, h, models.RoleCleaner, 5)
	admin := dial(t, h, models.RoleAdmin, 1)

	h.NotifyBooking("booking_created", &models.Booking{ID: 1, Status: models.BookingStatusPending})
	for _, conn := range []*websocket.Conn{assigned, other, admin} {
		assert.Equal(t, "booking_created", read(t, conn).Event)
	}

	cleanerID := uint(4)
	h.NotifyBooking("booking_accepted", &models.Booking{ID: 1, CleanerID: &cleanerID, Status: models.BookingStatusAccepted})
	h.NotifyBooking("booking_created", &models.Booking{ID: 2, Status: models.BookingStatusPending})

	msg := read(t, assigned)
	assert.Equal(t, "booking_accepted", msg.Event)
	assert.Equal(t, uint(1), msg.Data.ID)
	assert.Equal(t, "booking_accepted", read(t, admin).Event)

	// the other cleaner skips the accepted job and gets the next open one
	msg = read(t, other)
	assert.Equal(t, "booking_created", msg.Event)
	assert.Equal(t, uint(2), msg.Data.ID)
}

func TestBookingHub_SlowClientDoesNotBlock(t *testing.T) {
	h := NewBookingHub()
	dial(t, h, models.RoleAdmin, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*4; i++ {
			h.Broadcast(Message{Event: "tick", Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on an unread client")
	}
}
