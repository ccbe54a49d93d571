package mydebounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/shopfront/lib/mytime"
)

func TestDebouncer(t *testing.T) {
	const delay = 2 * time.Second

	setup := func() (*Debouncer[string], *mytime.FakeScheduler) {
		clock := mytime.NewFakeScheduler(mytime.ExampleTime)
		return New[string](clock, delay), clock
	}

	t.Run("Burst collapses into last call", func(t *testing.T) {
		// given
		d, clock := setup()
		sent := []int{}

		// when
		for q := 2; q <= 6; q++ {
			quantity := q
			d.Trigger("A", func() { sent = append(sent, quantity) })
			clock.Advance(500 * time.Millisecond)
		}

		// then
		assert.Empty(t, sent)
		clock.Advance(delay)
		assert.Equal(t, []int{6}, sent)
		assert.Equal(t, 0, d.Pending())
	})

	t.Run("Window restarts on every trigger", func(t *testing.T) {
		// given
		d, clock := setup()
		calls := 0
		d.Trigger("A", func() { calls++ })
		clock.Advance(delay - time.Millisecond)

		// when
		d.Trigger("A", func() { calls++ })
		clock.Advance(delay - 10*time.Millisecond)

		// then
		assert.Equal(t, 0, calls)
		clock.Advance(10 * time.Millisecond)
		assert.Equal(t, 1, calls)
	})

	t.Run("Keys are independent", func(t *testing.T) {
		// given
		d, clock := setup()
		fired := []string{}

		// when
		d.Trigger("A", func() { fired = append(fired, "A") })
		d.Trigger("B", func() { fired = append(fired, "B") })
		clock.Advance(delay)

		// then
		assert.ElementsMatch(t, []string{"A", "B"}, fired)
	})

	t.Run("Cancel", func(t *testing.T) {
		// given
		d, clock := setup()
		calls := 0
		d.Trigger("A", func() { calls++ })

		// when
		cancelled := d.Cancel("A")
		clock.Advance(delay)

		// then
		assert.True(t, cancelled)
		assert.False(t, d.Cancel("A"))
		assert.Equal(t, 0, calls)
	})

	t.Run("Flush runs now and only once", func(t *testing.T) {
		// given
		d, clock := setup()
		calls := 0
		d.Trigger("A", func() { calls++ })

		// when
		flushed := d.Flush("A")
		clock.Advance(delay)

		// then
		assert.True(t, flushed)
		assert.Equal(t, 1, calls)
		assert.False(t, d.IsPending("A"))
	})

	t.Run("FlushAll keeps trigger order", func(t *testing.T) {
		// given
		d, _ := setup()
		fired := []string{}
		d.Trigger("B", func() { fired = append(fired, "B") })
		d.Trigger("A", func() { fired = append(fired, "A") })
		d.Trigger("C", func() { fired = append(fired, "C") })

		// when
		n := d.FlushAll()

		// then
		assert.Equal(t, 3, n)
		assert.Equal(t, []string{"B", "A", "C"}, fired)
	})

	t.Run("CancelAll keeps accepting triggers", func(t *testing.T) {
		// given
		d, clock := setup()
		calls := 0
		d.Trigger("A", func() { calls++ })
		d.Trigger("B", func() { calls++ })

		// when
		n := d.CancelAll()
		clock.Advance(delay)

		// then
		assert.Equal(t, 2, n)
		assert.Equal(t, 0, calls)
		assert.True(t, d.Trigger("A", func() { calls++ }))
		clock.Advance(delay)
		assert.Equal(t, 1, calls)
	})

	t.Run("Stop cancels everything", func(t *testing.T) {
		// given
		d, clock := setup()
		calls := 0
		d.Trigger("A", func() { calls++ })
		d.Trigger("B", func() { calls++ })

		// when
		d.Stop()
		clock.Advance(delay)

		// then
		assert.Equal(t, 0, calls)
		assert.False(t, d.Trigger("A", func() { calls++ }))
		assert.Equal(t, 0, d.Pending())
	})
}
