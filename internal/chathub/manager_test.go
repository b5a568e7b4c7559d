package chathub_test

import (
	"context"
	"testing"
	"time"

	"trustline/backend/internal/chathub"
	"trustline/backend/internal/models"
	"trustline/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T, hub *chathub.ManagerService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func redisPublisher(t *testing.T) *storage.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return storage.NewStorageService(nil, rdb)
}

func receive(t *testing.T, c *MockClient) models.WebFrame {
	t.Helper()
	select {
	case f := <-c.RecvChannel:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not delivered")
		return models.WebFrame{}
	}
}

func TestManager_RegisterAndUnregister(t *testing.T) {
	hub := chathub.NewManagerService(&recordingDispatcher{}, nil)
	runHub(t, hub)

	client := newMockClient("anon-A", 1)
	require.True(t, hub.Register(client))
	assert.Eventually(t, func() bool { return hub.Connected("anon-A") }, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	assert.Eventually(t, func() bool { return !hub.Connected("anon-A") }, time.Second, 10*time.Millisecond)
	assert.True(t, client.isClosed())
}

func TestManager_NewConnectionReplacesOld(t *testing.T) {
	hub := chathub.NewManagerService(&recordingDispatcher{}, nil)
	runHub(t, hub)

	first := newMockClient("anon-A", 1)
	second := newMockClient("anon-A", 1)
	hub.Register(first)
	hub.Register(second)
	assert.Eventually(t, first.isClosed, time.Second, 10*time.Millisecond)

	// a late unregister of the replaced connection leaves the new one alone
	hub.Unregister(first)
	require.NoError(t, hub.SendMessage(context.Background(), models.OutboundMessage{ChannelRef: "ws:anon-A", Text: "still here"}))
	assert.Equal(t, "still here", receive(t, second).Text)
	assert.False(t, second.isClosed())
}

func TestManager_LocalDeliveryMarksOrigin(t *testing.T) {
	hub := chathub.NewManagerService(&recordingDispatcher{}, nil)
	runHub(t, hub)
	client := newMockClient("anon-B", 4)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.Connected("anon-B") }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.SendMessage(ctx, models.OutboundMessage{
		ChannelRef: "ws:anon-B",
		Text:       "Choose",
		Keyboard:   models.Keyboard{{{Text: "Report", Payload: "MENU_REPORT"}}},
		Origin:     models.OriginSystem,
	}))
	require.NoError(t, hub.SendMessage(ctx, models.OutboundMessage{
		ChannelRef: "ws:anon-B",
		Text:       "please provide the date",
		Origin:     models.OriginBridged,
	}))

	first := receive(t, client)
	assert.Equal(t, models.FrameSystem, first.Type)
	assert.Equal(t, "MENU_REPORT", first.Keyboard[0][0].Payload)
	second := receive(t, client)
	assert.Equal(t, models.FrameBridged, second.Type)
	assert.Equal(t, "please provide the date", second.Text)
}

func TestManager_SlowClientIsDropped(t *testing.T) {
	hub := chathub.NewManagerService(&recordingDispatcher{}, nil)
	runHub(t, hub)
	client := newMockClient("anon-C", 1)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.Connected("anon-C") }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.SendMessage(ctx, models.OutboundMessage{ChannelRef: "ws:anon-C", Text: "one"}))
	require.NoError(t, hub.SendMessage(ctx, models.OutboundMessage{ChannelRef: "ws:anon-C", Text: "two"}))

	assert.False(t, hub.Connected("anon-C"))
	assert.True(t, client.isClosed())
}

func TestManager_SendMessageRejectsForeignRef(t *testing.T) {
	hub := chathub.NewManagerService(&recordingDispatcher{}, nil)
	assert.Error(t, hub.SendMessage(context.Background(), models.OutboundMessage{ChannelRef: "tg:42"}))
	assert.Error(t, hub.SendMessage(context.Background(), models.OutboundMessage{ChannelRef: "ws:"}))
	assert.NoError(t, hub.AcknowledgeCallback(context.Background(), "anything"))
}

func TestManager_DeliversThroughRedisPubSub(t *testing.T) {
	publisher := redisPublisher(t)

	// two hubs share one Redis; only the second holds the reporter's connection
	sending := chathub.NewManagerService(&recordingDispatcher{}, publisher)
	holding := chathub.NewManagerService(&recordingDispatcher{}, publisher)
	runHub(t, sending)
	runHub(t, holding)

	client := newMockClient("anon-D", 4)
	holding.Register(client)
	require.Eventually(t, func() bool { return holding.Connected("anon-D") }, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		n, err := publisher.Redis.PubSubNumSub(context.Background(), chathub.FramesChannel).Result()
		return err == nil && n[chathub.FramesChannel] == 2
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, sending.SendMessage(context.Background(), models.OutboundMessage{
		ChannelRef: "ws:anon-D",
		Text:       "Case ABCD2345 registered",
	}))
	assert.Equal(t, "Case ABCD2345 registered", receive(t, client).Text)
	assert.False(t, sending.Connected("anon-D"))
}
