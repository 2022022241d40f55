package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"notevault/internal/dto"
	"notevault/internal/pkg/logger"
	"notevault/internal/service"
	"notevault/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	mu       sync.Mutex
	received map[string][]dto.VaultEvent
}

func (d *recordingDelivery) Send(sessionID string, event dto.VaultEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.received == nil {
		d.received = map[string][]dto.VaultEvent{}
	}
	d.received[sessionID] = append(d.received[sessionID], event)
}

func (d *recordingDelivery) count(sessionID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.received[sessionID])
}

func TestConsumerForwardsToSession(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	delivery := &recordingDelivery{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := service.NewConsumerService(pubSub, topic, delivery, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	// malformed payloads are dropped
	require.NoError(t, pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), []byte("{"))))

	payload, err := json.Marshal(dto.VaultEvent{Type: events.NoteDeleted, SessionId: "s-1", Address: "abc"})
	require.NoError(t, err)
	publisher := service.NewPublisherService(topic, pubSub)
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool { return delivery.count("s-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	delivery.mu.Lock()
	defer delivery.mu.Unlock()
	assert.Equal(t, events.NoteDeleted, delivery.received["s-1"][0].Type)
	assert.Equal(t, "abc", delivery.received["s-1"][0].Address)
}
