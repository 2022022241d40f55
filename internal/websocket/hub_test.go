package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notevault/internal/dto"
	"notevault/internal/pkg/logger"
	"notevault/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run(ctx)

	mine := &Client{Hub: hub, SessionID: "s-1", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "s-2", Send: make(chan []byte, 4)}
	require.True(t, hub.attach(mine))
	require.True(t, hub.attach(other))
	require.Eventually(t, func() bool { return hub.Listeners("s-1") == 1 && hub.Listeners("s-2") == 1 }, time.Second, 5*time.Millisecond)

	hub.Send("s-1", dto.VaultEvent{Type: events.NoteCreated, SessionId: "s-1"})

	select {
	case data := <-mine.Send:
		var frame struct {
			Type string         `json:"type"`
			Data dto.VaultEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "vault_event", frame.Type)
		assert.Equal(t, events.NoteCreated, frame.Data.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, other.Send)

	hub.detach(mine)
	require.Eventually(t, func() bool { return hub.Listeners("s-1") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-mine.Send
	assert.False(t, open)
}

func TestHubDropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run(ctx)

	slow := &Client{Hub: hub, SessionID: "s-1", Send: make(chan []byte)}
	require.True(t, hub.attach(slow))
	require.Eventually(t, func() bool { return hub.Listeners("s-1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Send("s-1", dto.VaultEvent{Type: events.ViewRefreshed})
	assert.Eventually(t, func() bool { return hub.Listeners("s-1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStoppedDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(nil, logger.NewNopLogger())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	live := &Client{Hub: hub, SessionID: "s-1", Send: make(chan []byte, 1)}
	require.True(t, hub.attach(live))
	require.Eventually(t, func() bool { return hub.Listeners("s-1") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	returned := make(chan bool, 1)
	go func() {
		late := &Client{Hub: hub, SessionID: "s-2", Send: make(chan []byte, 1)}
		attached := hub.attach(late)
		hub.detach(live)
		returned <- attached
	}()

	select {
	case attached := <-returned:
		assert.False(t, attached)
	case <-time.After(time.Second):
		t.Fatal("attach or detach blocked on a stopped hub")
	}
	assert.Equal(t, 0, hub.Listeners("s-2"))
}
