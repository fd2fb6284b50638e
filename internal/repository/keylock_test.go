package repository

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("Same key is exclusive", func(t *testing.T) {
		locks := newKeyedMutex()

		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("game-1")
				defer unlock()

				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				inside.Add(-1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside.Load())
		assert.Zero(t, locks.size(), "released keys are dropped")
	})

	t.Run("Different keys do not block each other", func(t *testing.T) {
		locks := newKeyedMutex()

		unlockA := locks.Lock("a")
		unlockB := locks.Lock("b")

		assert.Equal(t, 2, locks.size())

		unlockA()
		unlockB()
		assert.Zero(t, locks.size())
	})
}
