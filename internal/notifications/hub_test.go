package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_PerUserCap(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.Count())
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Zero(t, hub.Count())

	_, err = hub.Register(5, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastAllReachesEveryClient(t *testing.T) {
	hub := NewHub()
	a, _ := hub.Register(1, nil)
	b, _ := hub.Register(2, nil)

	hub.BroadcastAll(`{"type":"card_created"}`)

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"card_created"}`, string(msg))
		default:
			t.Fatalf("client %d got nothing", c.UserID)
		}
	}
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, _ := hub.Register(1, nil)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	close(c.Send)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	_, _ = hub.Register(1, nil)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())

	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestHub_StartWiringForwardsPublishedEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	require.NoError(t, notifier.PublishCardEvent(ctx, EventCardDeleted, map[string]uint{"_id": 9}))

	var got Event
	assert.Eventually(t, func() bool {
		select {
		case msg := <-c.Send:
			return json.Unmarshal(msg, &got) == nil
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)
	assert.Equal(t, EventCardDeleted, got.Type)
	assert.JSONEq(t, `{"_id":9}`, string(got.Payload))
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishCardEvent(context.Background(), EventCardCreated, nil))
	assert.NoError(t, n.StartCardSubscriber(context.Background(), func(string) {}))
}
