package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"immigration-case-portal/backend/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	log := logger.New(logger.Config{Level: "error"})
	return NewHub(log, func(r *http.Request) bool { return true })
}

func TestPushWithoutConnectionsIsSafe(t *testing.T) {
	hub := newTestHub()

	hub.Push("nobody", map[string]string{"title": "hello"})

	assert.Zero(t, hub.ConnectedUsers())
}

func TestPushReachesConnectedUser(t *testing.T) {
	hub := newTestHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, "u-1"); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Push("u-1", map[string]string{"title": "case updated"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "case updated")
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := newTestHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "u-1")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 0
	}, time.Second, 10*time.Millisecond)
}
