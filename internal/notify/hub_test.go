package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubBroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	conn := dialHub(t, hub)

	// Connecting triggers a client_count event.
	ev := readEvent(t, conn)
	assert.Equal(t, "client_count", ev.Type)

	hub.Broadcast("book_borrowed", map[string]string{"transaction_id": "TXN-1"})
	ev = readEvent(t, conn)
	assert.Equal(t, "book_borrowed", ev.Type)
	assert.NotEmpty(t, ev.Timestamp)
}

func TestHubRelaysClientMessages(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	a := dialHub(t, hub)
	b := dialHub(t, hub)

	// Drain the connection events on both sides.
	readEvent(t, a)
	readEvent(t, a)
	readEvent(t, b)

	require.NoError(t, a.WriteJSON(map[string]interface{}{
		"type":    "test_message",
		"payload": map[string]string{"hello": "desk"},
	}))

	ev := readEvent(t, b)
	assert.Equal(t, "test_message", ev.Type)
}

func TestHubIgnoresMalformedMessages(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	conn := dialHub(t, hub)
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	hub.Broadcast("ping", nil)
	ev := readEvent(t, conn)
	assert.Equal(t, "ping", ev.Type)
}
