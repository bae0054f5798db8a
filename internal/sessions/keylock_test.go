package sessions

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTableLocksSerializeSameKey(t *testing.T) {
	locks := newTableLocks()
	key := uuid.New()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Lock(key)
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside.Load())
	assert.Zero(t, locks.size())
}

func TestTableLocksIndependentKeys(t *testing.T) {
	locks := newTableLocks()
	releaseA := locks.Lock(uuid.New())
	releaseB := locks.Lock(uuid.New())
	assert.Equal(t, 2, locks.size())
	releaseA()
	releaseB()
	assert.Zero(t, locks.size())
}
