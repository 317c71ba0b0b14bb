package websocket

import (
	"context"
	"testing"
	"time"

	"chromir-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(rdb, logger.NewNopLogger())
	go hub.Run(ctx)
	return hub
}

func connect(hub *Hub, orgID uuid.UUID) *Client {
	c := &Client{Hub: hub, UserID: uuid.New(), OrganizationID: orgID, Send: make(chan []byte, 4)}
	hub.register <- c
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_DeliversOnlyToOrganization(t *testing.T) {
	hub := startHub(t, nil)
	orgA, orgB := uuid.New(), uuid.New()
	a1, a2 := connect(hub, orgA), connect(hub, orgA)
	b := connect(hub, orgB)

	require.Eventually(t, func() bool { return hub.ConnectedClients(orgA) == 2 }, time.Second, 10*time.Millisecond)
	hub.SendToOrganization(orgA, []byte(`{"type":"progress"}`))

	assert.JSONEq(t, `{"type":"progress"}`, string(receive(t, a1)))
	assert.JSONEq(t, `{"type":"progress"}`, string(receive(t, a2)))
	assert.Empty(t, b.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t, nil)
	org := uuid.New()
	c := connect(hub, org)

	hub.unregister <- c
	// A second unregister of the same client is harmless.
	hub.unregister <- c

	_, open := <-c.Send
	assert.False(t, open)
	assert.Eventually(t, func() bool { return hub.ConnectedClients(org) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_RedisFanOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return rdb
	}
	first := startHub(t, newClient())
	second := startHub(t, newClient())
	org := uuid.New()
	remote := connect(second, org)

	require.Eventually(t, func() bool {
		return second.ConnectedClients(org) == 1 && mr.PubSubNumSub(clusterChannel)[clusterChannel] == 2
	},
		2*time.Second, 10*time.Millisecond)
	first.SendToOrganization(org, []byte(`{"stage":"training"}`))

	assert.JSONEq(t, `{"stage":"training"}`, string(receive(t, remote)))
}

func TestHub_StoppedHubDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, logger.NewNopLogger())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	org := uuid.New()
	c := &Client{Hub: hub, UserID: uuid.New(), OrganizationID: org, Send: make(chan []byte)}
	require.True(t, hub.join(c))
	cancel()
	<-stopped

	left := make(chan struct{})
	go func() {
		hub.leave(c)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}

	assert.False(t, hub.join(&Client{Hub: hub, OrganizationID: org, Send: make(chan []byte)}))
	// A full send buffer on a stopped hub drops the client without leaking a blocked send.
	assert.NotPanics(t, func() { hub.SendToOrganization(org, []byte(`{}`)) })
}
