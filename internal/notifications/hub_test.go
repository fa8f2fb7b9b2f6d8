package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuswell/internal/models"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func drainEvent(t *testing.T, c *Client) WSEvent {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev WSEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for event")
		return WSEvent{}
	}
}

func TestHub_RegisterEnforcesPerUserCap(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		c := NewClient(hub, nil, 7)
		assert.True(t, hub.RegisterClient(c))
	}
	extra := NewClient(hub, nil, 7)
	assert.False(t, hub.RegisterClient(extra))
	assert.Equal(t, maxConnsPerUser, hub.ClientCount(7))

	// Another user is unaffected by the first user's cap.
	other := NewClient(hub, nil, 8)
	assert.True(t, hub.RegisterClient(other))
}

func TestHub_SendNotificationReachesAllUserClients(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	a := NewClient(hub, nil, 3)
	b := NewClient(hub, nil, 3)
	stranger := NewClient(hub, nil, 4)
	require.True(t, hub.RegisterClient(a))
	require.True(t, hub.RegisterClient(b))
	require.True(t, hub.RegisterClient(stranger))

	hub.SendNotification(&models.Notification{RecipientID: 3, Message: "nouveau commentaire"})

	for _, c := range []*Client{a, b} {
		ev := drainEvent(t, c)
		assert.Equal(t, "new_notification", ev.Type)
	}
	assert.Empty(t, stranger.Send)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c := NewClient(hub, nil, 5)
	require.True(t, hub.RegisterClient(c))
	hub.UnregisterClient(c)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.ClientCount(5))

	// Double unregister is a no-op.
	hub.UnregisterClient(c)
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	a := NewClient(hub, nil, 1)
	b := NewClient(hub, nil, 2)
	require.True(t, hub.RegisterClient(a))
	require.True(t, hub.RegisterClient(b))

	hub.Broadcast([]byte(`{"type":"announcement","payload":{}}`))

	for _, c := range []*Client{a, b} {
		ev := drainEvent(t, c)
		assert.Equal(t, "announcement", ev.Type)
	}
}

func TestHub_TrySendDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c := NewClient(hub, nil, 6)
	require.True(t, hub.RegisterClient(c))

	for i := 0; i < cap(c.Send); i++ {
		c.Send <- []byte("fill")
	}

	// Must not block even though the buffer is full.
	done := make(chan struct{})
	go func() {
		c.TrySend([]byte("overflow"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(testEventuallyTimeout):
		t.Fatal("TrySend blocked on full buffer")
	}
}

func TestHub_StartWiringDeliversPublishedPayloads(t *testing.T) {
	mr, rdb := startTestRedis(t)
	defer mr.Close()

	hub := NewHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c := NewClient(hub, nil, 11)
	require.True(t, hub.RegisterClient(c))

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.StartWiring(ctx, n)

	require.NoError(t, n.PublishUser(ctx, 11, `{"type":"new_notification","payload":{"message":"rdv confirmé"}}`))

	assert.Eventually(t, func() bool {
		select {
		case raw := <-c.Send:
			var ev WSEvent
			return json.Unmarshal(raw, &ev) == nil && ev.Type == "new_notification"
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	require.NoError(t, n.PublishBroadcast(ctx, `{"type":"announcement","payload":{}}`))
	assert.Eventually(t, func() bool {
		select {
		case raw := <-c.Send:
			var ev WSEvent
			return json.Unmarshal(raw, &ev) == nil && ev.Type == "announcement"
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)
}
