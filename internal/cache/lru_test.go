package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](4, 30*time.Second).WithClock(clock.Now)

	c.Set("projects", "cached")
	clock.Advance(29 * time.Second)
	v, ok := c.Get("projects")
	assert.True(t, ok)
	assert.Equal(t, "cached", v)

	c.Set("other", "x")
	clock.Advance(2 * time.Second)
	_, ok = c.Get("projects")
	assert.False(t, ok)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("missing")
	assert.Zero(t, c.Size())

	c.Set("b", 2)
	c.Purge()
	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestManagerSweepAndStop(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[int](4, time.Second).WithClock(clock.Now)
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(nil)
	m.Register(c)
	clock.Advance(time.Hour)
	assert.Equal(t, 2, m.Sweep())

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
	m.Wait()
}
