package nats

import (
	"testing"
	"time"

	"notevault/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	header := nats.Header{}
	header.Set(headerEventType, events.NoteCreated)
	header.Set(headerOccurredAt, at.Format(time.RFC3339Nano))

	evt, err := DecodeMessage(Subject(events.NoteCreated), header, []byte(`{"address":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, events.NoteCreated, evt.EventType())
	assert.Equal(t, "abc", evt.Payload()["address"])
	assert.True(t, at.Equal(evt.Timestamp()))
}

func TestDecodeMessageWithoutHeaders(t *testing.T) {
	evt, err := DecodeMessage("events.VIEW_STALE", nats.Header{}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, events.ViewStale, evt.EventType())
	assert.False(t, evt.Timestamp().IsZero())
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	_, err := DecodeMessage("events.X", nats.Header{}, []byte("nope"))
	assert.Error(t, err)
}
