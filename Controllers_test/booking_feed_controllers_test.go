package Controllers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingFeed(t *testing.T) {
	s := newTestServer(t)
	_, customer := s.signup("Customer", "c@example.com", "Customer")
	_, cleaner := s.signup("Cleaner", "cl@example.com", "Cleaner")
	_, rival := s.signup("Rival", "rival@example.com", "Cleaner")

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/bookings"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+customer, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token="+cleaner, header)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+cleaner, nil)
	require.NoError(t, err)
	defer conn.Close()
	rivalConn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+rival, nil)
	require.NoError(t, err)
	defer rivalConn.Close()
	// registration happens right after the handshake
	time.Sleep(50 * time.Millisecond)

	b := s.createBooking(customer)

	for _, c := range []*websocket.Conn{conn, rivalConn} {
		msg := readFeed(t, c)
		assert.Equal(t, "booking_created", msg.Event)
		assert.Equal(t, b.ID, msg.Data.ID)
		assert.Equal(t, "Pending", msg.Data.Status)
	}

	w := s.do(http.MethodPut, fmt.Sprintf("/api/bookings/%d/accept", b.ID), cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	next := s.createBooking(customer)

	msg := readFeed(t, conn)
	assert.Equal(t, "booking_accepted", msg.Event)
	assert.Equal(t, b.ID, msg.Data.ID)

	// the rival never sees the accepted job, only the next open booking
	msg = readFeed(t, rivalConn)
	assert.Equal(t, "booking_created", msg.Event)
	assert.Equal(t, next.ID, msg.Data.ID)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, fmt.Sprintf("/api/bookings/%d", b.ID), rival, nil).Code)
}

type feedMessage struct {
	Event string      `json:"event"`
	Data  bookingData `json:"data"`
}

func readFeed(t *testing.T, conn *websocket.Conn) feedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg feedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}
