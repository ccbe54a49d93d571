package mytime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeScheduler(t *testing.T) {
	t.Run("Fires in due order", func(t *testing.T) {
		s := NewFakeScheduler(ExampleTime)
		fired := []string{}
		s.AfterFunc(2*time.Second, func() { fired = append(fired, "second") })
		s.AfterFunc(1*time.Second, func() { fired = append(fired, "first") })

		s.Advance(1500 * time.Millisecond)
		assert.Equal(t, []string{"first"}, fired)
		assert.Equal(t, 1, s.Pending())

		s.Advance(time.Second)
		assert.Equal(t, []string{"first", "second"}, fired)
		assert.Equal(t, ExampleTime.Add(2500*time.Millisecond), s.Now())
	})

	t.Run("Stopped timer never fires", func(t *testing.T) {
		s := NewFakeScheduler(ExampleTime)
		fired := false
		timer := s.AfterFunc(time.Second, func() { fired = true })

		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())

		s.Advance(time.Minute)
		assert.False(t, fired)
		assert.Equal(t, 0, s.Pending())
	})

	t.Run("Callback sees its own due time and may reschedule", func(t *testing.T) {
		s := NewFakeScheduler(ExampleTime)
		seen := []time.Time{}
		var tick func()
		tick = func() {
			seen = append(seen, s.Now())
			if len(seen) < 3 {
				s.AfterFunc(time.Minute, tick)
			}
		}
		s.AfterFunc(time.Minute, tick)

		s.Advance(time.Hour)
		assert.Equal(t, []time.Time{
			ExampleTime.Add(1 * time.Minute),
			ExampleTime.Add(2 * time.Minute),
			ExampleTime.Add(3 * time.Minute),
		}, seen)
	})

	t.Run("Next due", func(t *testing.T) {
		s := NewFakeScheduler(ExampleTime)
		_, found := s.NextDue()
		assert.False(t, found)

		s.AfterFunc(55*time.Minute, func() {})
		due, found := s.NextDue()
		assert.True(t, found)
		assert.Equal(t, ExampleTime.Add(55*time.Minute), due)
	})
}
