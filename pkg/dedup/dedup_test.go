package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcessDropsRepeats(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))
	assert.True(t, d.ShouldProcess("b"))
	assert.False(t, d.ShouldProcess("b"))
}

func TestShouldProcessEmptyIDAlwaysPasses(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
}

func TestShouldProcessExpiry(t *testing.T) {
	d := New(10*time.Millisecond, 100)

	assert.True(t, d.ShouldProcess("a"))
	time.Sleep(20 * time.Millisecond)
	assert.True(t, d.ShouldProcess("a"))
}

func TestCapBoundsExpiredEntries(t *testing.T) {
	d := New(time.Nanosecond, 10)

	for i := 0; i < 100; i++ {
		d.ShouldProcess(fmt.Sprintf("id-%d", i))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.LessOrEqual(t, len(d.seen), 11)
}
