// Package notify fans game updates out to spectators.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

// Update - one serialized game view and the game version it was taken at.
type Update struct {
	Version int64
	Payload []byte
}

type Hub struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string]map[chan Update]struct{}
	latest map[string]int64
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "notify"),
		subs:   make(map[string]map[chan Update]struct{}),
		latest: make(map[string]int64),
	}
}

// Subscribe - returns a channel of updates for gameID and a cancel func that closes it.
func (that *Hub) Subscribe(gameID string) (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	that.mu.Lock()
	if that.subs[gameID] == nil {
		that.subs[gameID] = make(map[chan Update]struct{})
	}
	that.subs[gameID][ch] = struct{}{}
	that.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			that.mu.Lock()
			delete(that.subs[gameID], ch)
			if len(that.subs[gameID]) == 0 {
				delete(that.subs, gameID)
				delete(that.latest, gameID)
			}
			that.mu.Unlock()

			close(ch)
		})
	}

	return ch, cancel
}

// Publish - never blocks; a subscriber with a full buffer misses the update.
// An update not newer than the last one delivered for the game is dropped.
func (that *Hub) Publish(gameID string, version int64, payload any) {
	log := that.logger.With("method", "Publish", "game_id", gameID, "version", version)

	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.subs[gameID]) == 0 {
		return
	}

	if last, ok := that.latest[gameID]; ok && version <= last {
		log.Debug("stale update dropped", "latest", last)
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal update", "error", err)
		return
	}

	that.latest[gameID] = version

	for ch := range that.subs[gameID] {
		select {
		case ch <- Update{Version: version, Payload: raw}:
		default:
			log.Warn("spectator is too slow, update dropped")
		}
	}
}

func (that *Hub) Subscribers(gameID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subs[gameID])
}
