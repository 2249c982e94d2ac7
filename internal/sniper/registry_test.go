package sniper

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Exclusive(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.TryAcquire("token-a"))
	assert.False(t, r.TryAcquire("token-a"))
	assert.True(t, r.TryAcquire("token-b"))

	r.Release("token-a")
	assert.True(t, r.TryAcquire("token-a"))
	assert.True(t, r.Held("token-b"))
}

func TestRegistry_ConcurrentAcquire(t *testing.T) {
	r := NewRegistry()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire("token-a") {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one acquirer must win")
}

func TestRegistry_ReleaseUnheld(t *testing.T) {
	r := NewRegistry()
	r.Release("never-held") // must not panic
	assert.False(t, r.Held("never-held"))
}
