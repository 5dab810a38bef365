package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adstudio/api/internal/logger"
	"github.com/adstudio/api/internal/model"
)

func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		fn()
	}()
	select {
	case <-finished:
	case <-time.After(d):
		t.Fatal("call blocked")
	}
}

func TestHub_BroadcastReachesJobSubscribers(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	mine := &Client{JobID: "job-1", Send: make(chan []byte, sendBuffer)}
	other := &Client{JobID: "job-2", Send: make(chan []byte, sendBuffer)}
	require.True(t, h.add(mine))
	require.True(t, h.add(other))

	h.BroadcastProgress("job-1", 40, model.ProviderMock, "Generating")

	select {
	case data := <-mine.Send:
		var msg model.WSProgressMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, model.WSMessageTypeProgress, msg.Type)
		assert.Equal(t, 40, msg.Progress)
	case <-time.After(time.Second):
		t.Fatal("no progress message")
	}

	// drop closes the send channel once Run has removed the client
	within(t, time.Second, func() { h.drop(mine) })
	within(t, time.Second, func() {
		for range mine.Send {
		}
	})
	assert.Empty(t, other.Send)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	h := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	client := &Client{JobID: "job-1", Send: make(chan []byte, sendBuffer)}
	require.True(t, h.add(client))

	cancel()
	<-stopped

	// Run closed every subscriber on shutdown
	_, open := <-client.Send
	assert.False(t, open)

	within(t, time.Second, func() { h.drop(client) })

	late := &Client{JobID: "job-1", Send: make(chan []byte, sendBuffer)}
	within(t, time.Second, func() { assert.False(t, h.add(late)) })
}
