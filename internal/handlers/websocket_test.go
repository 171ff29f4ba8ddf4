package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"good-morning-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	token, err := e.userSvc.GenerateJWT(userID)
	require.NoError(t, err)

	target := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readWS(t, conn, 2*time.Second)
	require.NotNil(t, msg)
	require.Equal(t, services.MsgPairStatus, msg.Type)
	return conn
}

// readWS returns the next message, or nil if none arrives within wait
func readWS(t *testing.T, conn *websocket.Conn, wait time.Duration) *services.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil
	}
	var msg services.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestWebSocketReconnectKeepsPartnerOnline(t *testing.T) {
	env := newTestEnv(t)
	env.pair(t)

	h := NewWebSocketHandler(env.hub, env.userSvc, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	partner := env.dialWS(t, srv, "b")

	first := env.dialWS(t, srv, "a")
	msg := readWS(t, partner, 2*time.Second)
	require.NotNil(t, msg)
	require.Equal(t, services.MsgPartnerStatus, msg.Type)
	assert.True(t, *msg.Online)

	// a second tab replaces the first connection
	env.dialWS(t, srv, "a")
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	for msg := readWS(t, partner, 500*time.Millisecond); msg != nil; msg = readWS(t, partner, 500*time.Millisecond) {
		if msg.Type == services.MsgPartnerStatus {
			assert.True(t, *msg.Online, "partner saw an offline status while a connection was live")
		}
	}
	assert.True(t, env.hub.IsOnline("a"))
}
