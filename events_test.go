package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeNotifierFanOut(t *testing.T) {
	notifier := newChangeNotifier()

	first, unsubFirst := notifier.Subscribe()
	second, unsubSecond := notifier.Subscribe()
	defer unsubFirst()
	defer unsubSecond()

	notifier.Publish(ChangeEvent{Type: EventSelectionChanged})

	for _, ch := range []<-chan ChangeEvent{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, EventSelectionChanged, event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestChangeNotifierUnsubscribe(t *testing.T) {
	notifier := newChangeNotifier()
	events, unsubscribe := notifier.Subscribe()

	unsubscribe()
	_, open := <-events
	assert.False(t, open, "channel must be closed after unsubscribe")

	// Publishing after unsubscribe must not panic.
	notifier.Publish(ChangeEvent{Type: EventRegionsChanged})

	t.Run("unsubscribing twice is safe", func(t *testing.T) {
		assert.NotPanics(t, unsubscribe)
	})
}

func TestChangeNotifierNeverBlocks(t *testing.T) {
	notifier := newChangeNotifier()
	events, unsubscribe := notifier.Subscribe()
	defer unsubscribe()

	// Nobody reads; publishing past the buffer must still return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			notifier.Publish(ChangeEvent{Type: EventRegionsChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The buffered events are still readable.
	event := <-events
	require.Equal(t, EventRegionsChanged, event.Type)
}
