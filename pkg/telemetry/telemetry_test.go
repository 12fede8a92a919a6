package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(Event{
		Type:      EventFallbackPrompt,
		SessionID: "s1",
		Data:      map[string]any{"failed_model": "claude-sonnet-4-5"},
	})

	select {
	case ev := <-ch:
		assert.Equal(t, EventFallbackPrompt, ev.Type)
		assert.Equal(t, "s1", ev.SessionID)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	unsubscribe()

	// Channel should be closed after unsubscribe.
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	hub.Publish(Event{Type: EventFallbackVerdict})
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// Fill well past the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Type: EventFallbackClassified})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// Drain whatever was buffered.
	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			require.LessOrEqual(t, count, 64)
			return
		}
	}
}

func TestClosedHub(t *testing.T) {
	hub := NewHub()
	hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	_, open := <-ch
	assert.False(t, open)

	hub.Publish(Event{Type: EventSessionEnded}) // no panic

	var nilHub *Hub
	nilHub.Publish(Event{Type: EventSessionEnded}) // no panic
}
