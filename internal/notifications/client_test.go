package notifications

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveHub runs a feed endpoint on a loopback port. Every handler sends its
// client on served once Serve has returned.
func serveHub(t *testing.T, hub *Hub) (string, <-chan *Client) {
	t.Helper()

	served := make(chan *Client, 4)
	app := fiber.New()
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client, err := hub.Register(1, conn)
		if err != nil {
			_ = conn.Close()
			return
		}
		defer hub.UnregisterClient(client)
		client.Serve()
		served <- client
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/ws", served
}

func waitServed(t *testing.T, served <-chan *Client) *Client {
	t.Helper()
	select {
	case c := <-served:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return")
		return nil
	}
}

func TestClient_ServeStopsBothPumpsOnDisconnect(t *testing.T) {
	hub := NewHub()
	url, served := serveHub(t, hub)

	first, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, testEventuallyTimeout, testPollInterval)
	require.NoError(t, first.Close())

	gone := waitServed(t, served)
	select {
	case <-gone.Done():
	default:
		t.Fatal("disconnected client was not stopped")
	}
	assert.Zero(t, hub.Count())

	// A reconnect may reuse the pooled connection; it must get every event.
	second, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, testEventuallyTimeout, testPollInterval)

	hub.BroadcastAll(`{"type":"card_created"}`)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := second.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"card_created"}`, string(msg))
}

func TestHub_ShutdownClosesThroughWritePump(t *testing.T) {
	hub := NewHub()
	url, served := serveHub(t, hub)

	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, testEventuallyTimeout, testPollInterval)

	require.NoError(t, hub.Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseGoingAway), "got %v", err)

	waitServed(t, served)
}
