package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_DoesNotMove(t *testing.T) {
	ref := ReferenceTime()
	c := NewFixedClock(ref)

	assert.Equal(t, ref, c.Now())
	assert.Equal(t, ref, c.Now())
}

func TestFixedClock_AdvanceAndSet(t *testing.T) {
	ref := ReferenceTime()
	c := NewFixedClock(ref)

	got := c.Advance(90 * time.Second)
	assert.Equal(t, ref.Add(90*time.Second), got)
	assert.Equal(t, got, c.Now())

	c.Set(ref)
	assert.Equal(t, ref, c.Now())
}

func TestFixedClock_ConcurrentAdvance(t *testing.T) {
	ref := ReferenceTime()
	c := NewFixedClock(ref)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, ref.Add(100*time.Second), c.Now())
}

func TestReferenceTime_Offset(t *testing.T) {
	_, offset := ReferenceTime().Zone()
	assert.Equal(t, -3*60*60, offset)
}
