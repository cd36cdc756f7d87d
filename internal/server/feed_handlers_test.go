package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"mesto/internal/auth"
	"mesto/internal/models"
	"mesto/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves env.app on a loopback port and returns its address.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func dialFeed(addr, token string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", (&http.Cookie{Name: auth.CookieName, Value: token}).String())
	}
	return websocket.DefaultDialer.Dial("ws://"+addr+"/ws/cards", header)
}

func TestCardFeed_BroadcastsCardEvents(t *testing.T) {
	env := newTestEnv(t, envOptions{redis: true})
	_, token := env.newUser(t, "watcher@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, env.srv.hub.StartWiring(ctx, env.srv.notifier))

	addr := env.listen(t)
	conn, _, err := dialFeed(addr, token)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return env.srv.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	card := env.createCard(t, token, "Kamchatka")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event notifications.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, notifications.EventCardCreated, event.Type)

	var payload models.Card
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, card.ID, payload.ID)

	resp, _ := env.do(t, http.MethodDelete, fmt.Sprintf("/cards/%d", card.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, notifications.EventCardDeleted, event.Type)
}

func TestCardFeed_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, envOptions{redis: true})
	addr := env.listen(t)

	_, resp, err := dialFeed(addr, "")

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCardFeed_DisabledWithoutRedis(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.newUser(t, "watcher@example.com")

	resp, _ := env.do(t, http.MethodGet, "/ws/cards", nil, token)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Nil(t, env.srv.hub)
}
