package mytime

import (
	"sort"
	"sync"
	"time"
)

// FakeScheduler is a manually driven clock. Callbacks only run from Advance, in the
// goroutine that calls Advance, in order of their due time.
type FakeScheduler struct {
	sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	scheduler *FakeScheduler
	seq       int
	due       time.Time
	f         func()
	stopped   bool
	fired     bool
}

func NewFakeScheduler(now time.Time) *FakeScheduler {
	return &FakeScheduler{now: now}
}

func (s *FakeScheduler) Now() time.Time {
	s.Lock()
	defer s.Unlock()

	return s.now
}

func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.Lock()
	defer s.Unlock()

	s.seq++
	t := &fakeTimer{
		scheduler: s,
		seq:       s.seq,
		due:       s.now.Add(d),
		f:         f,
	}
	s.timers = append(s.timers, t)

	return t
}

// Advance moves the clock forward and runs every callback that became due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.Lock()
	target := s.now.Add(d)
	s.Unlock()

	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	s.Lock()
	s.now = target
	s.Unlock()
}

func (s *FakeScheduler) nextDue(target time.Time) *fakeTimer {
	s.Lock()
	defer s.Unlock()

	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due.Equal(s.timers[j].due) {
			return s.timers[i].seq < s.timers[j].seq
		}
		return s.timers[i].due.Before(s.timers[j].due)
	})

	for i, t := range s.timers {
		if t.due.After(target) {
			return nil
		}
		s.timers = append(s.timers[:i], s.timers[i+1:]...)
		t.fired = true
		if t.due.After(s.now) {
			s.now = t.due
		}
		return t
	}

	return nil
}

// Pending returns the number of armed callbacks.
func (s *FakeScheduler) Pending() int {
	s.Lock()
	defer s.Unlock()

	return len(s.timers)
}

// NextDue returns when the earliest armed callback fires.
func (s *FakeScheduler) NextDue() (time.Time, bool) {
	s.Lock()
	defer s.Unlock()

	if len(s.timers) == 0 {
		return time.Time{}, false
	}
	earliest := s.timers[0].due
	for _, t := range s.timers[1:] {
		if t.due.Before(earliest) {
			earliest = t.due
		}
	}
	return earliest, true
}

func (t *fakeTimer) Stop() bool {
	s := t.scheduler
	s.Lock()
	defer s.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			break
		}
	}
	return true
}
