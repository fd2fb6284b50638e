package notify

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestHub_PublishReachesSubscribersOfTheGame(t *testing.T) {
	hub := newTestHub()

	// Given: one spectator on g1 and one on g2
	g1, cancel1 := hub.Subscribe("g1")
	defer cancel1()
	g2, cancel2 := hub.Subscribe("g2")
	defer cancel2()

	// When: an update for g1 is published
	hub.Publish("g1", 1, map[string]string{"status": "DRAW"})

	// Then: only the g1 spectator receives it
	require.Len(t, g1, 1)
	update := <-g1
	assert.EqualValues(t, 1, update.Version)
	assert.JSONEq(t, `{"status":"DRAW"}`, string(update.Payload))
	assert.Empty(t, g2)
}

func TestHub_StaleUpdatesAreDropped(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe("g1")
	defer cancel()

	// When: version 3 is published before versions 2 and 3 arrive late
	hub.Publish("g1", 3, "third")
	hub.Publish("g1", 2, "second")
	hub.Publish("g1", 3, "third again")
	hub.Publish("g1", 4, "fourth")

	// Then: the spectator only sees increasing versions
	require.Len(t, ch, 2)
	assert.EqualValues(t, 3, (<-ch).Version)
	assert.EqualValues(t, 4, (<-ch).Version)
}

func TestHub_VersionsResetWhenLastSpectatorLeaves(t *testing.T) {
	hub := newTestHub()

	_, cancel := hub.Subscribe("g1")
	hub.Publish("g1", 5, "fifth")
	cancel()

	// When: a new spectator arrives after everyone left
	ch, cancel := hub.Subscribe("g1")
	defer cancel()
	hub.Publish("g1", 1, "first")

	// Then: it is not held back by versions seen by earlier spectators
	require.Len(t, ch, 1)
	assert.EqualValues(t, 1, (<-ch).Version)
}

func TestHub_CancelUnsubscribes(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe("g1")
	assert.Equal(t, 1, hub.Subscribers("g1"))

	// When: cancelling twice
	cancel()
	cancel()

	// Then: the channel is closed and the game has no spectators
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers("g1"))

	// Then: publishing afterwards does not panic
	hub.Publish("g1", 1, "late")
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newTestHub()

	ch, cancel := hub.Subscribe("g1")
	defer cancel()

	// When: more updates than the buffer holds are published
	for i := range subscriberBuffer + 5 {
		hub.Publish("g1", int64(i+1), i)
	}

	// Then: the buffer is full and the rest were dropped
	assert.Len(t, ch, subscriberBuffer)
}
