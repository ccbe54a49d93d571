// Package mydebounce collapses bursts of calls per key into one trailing call.
package mydebounce

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/MarcGrol/shopfront/lib/mytime"
)

type entry struct {
	seq   uint64
	timer mytime.Timer
	fn    func()
}

// Debouncer runs, per key, only the last function triggered within the delay.
// Every Trigger cancels the pending call for that key and re-arms the delay.
type Debouncer[K comparable] struct {
	sync.Mutex
	scheduler mytime.Scheduler
	delay     time.Duration
	seq       uint64
	pending   map[K]*entry
	stopped   bool
}

func New[K comparable](scheduler mytime.Scheduler, delay time.Duration) *Debouncer[K] {
	return &Debouncer[K]{
		scheduler: scheduler,
		delay:     delay,
		pending:   map[K]*entry{},
	}
}

// Trigger (re)schedules fn for key. It returns false once the debouncer is stopped.
func (d *Debouncer[K]) Trigger(key K, fn func()) bool {
	d.Lock()
	defer d.Unlock()

	if d.stopped {
		return false
	}

	if e, found := d.pending[key]; found {
		e.timer.Stop()
	}

	d.seq++
	e := &entry{seq: d.seq, fn: fn}
	e.timer = d.scheduler.AfterFunc(d.delay, func() {
		d.fire(key, e.seq)
	})
	d.pending[key] = e

	return true
}

func (d *Debouncer[K]) fire(key K, seq uint64) {
	d.Lock()
	e, found := d.pending[key]
	if !found || e.seq != seq {
		// replaced or cancelled after the timer already started
		d.Unlock()
		return
	}
	delete(d.pending, key)
	d.Unlock()

	e.fn()
}

// Cancel drops the pending call for key without running it.
func (d *Debouncer[K]) Cancel(key K) bool {
	d.Lock()
	defer d.Unlock()

	e, found := d.pending[key]
	if !found {
		return false
	}
	e.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs the pending call for key right away.
func (d *Debouncer[K]) Flush(key K) bool {
	d.Lock()
	e, found := d.pending[key]
	if found {
		e.timer.Stop()
		delete(d.pending, key)
	}
	d.Unlock()

	if found {
		e.fn()
	}
	return found
}

// FlushAll runs every pending call right away, in trigger order.
func (d *Debouncer[K]) FlushAll() int {
	d.Lock()
	entries := make([]*entry, 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
		entries = append(entries, e)
	}
	d.Unlock()

	slices.SortFunc(entries, func(a, b *entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	for _, e := range entries {
		e.fn()
	}
	return len(entries)
}

// CancelAll drops every pending call without running it.
func (d *Debouncer[K]) CancelAll() int {
	d.Lock()
	defer d.Unlock()

	n := len(d.pending)
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
	return n
}

// Stop cancels all pending calls; later triggers are ignored.
func (d *Debouncer[K]) Stop() {
	d.Lock()
	defer d.Unlock()

	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
	d.stopped = true
}

func (d *Debouncer[K]) IsPending(key K) bool {
	d.Lock()
	defer d.Unlock()

	_, found := d.pending[key]
	return found
}

func (d *Debouncer[K]) Pending() int {
	d.Lock()
	defer d.Unlock()

	return len(d.pending)
}
