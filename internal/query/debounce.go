package query

import (
	"sync"
	"time"
)

// Debouncer turns a burst of pushed values into at most one emission: a
// value is emitted once window has passed with no newer push, and only if it
// differs from the previously emitted value.
type Debouncer struct {
	window time.Duration
	emit   func(string)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	last    string
	emitted bool

	// held while emitting so emissions never overlap or reorder
	emitMu sync.Mutex
}

func NewDebouncer(window time.Duration, emit func(string)) *Debouncer {
	return &Debouncer{window: window, emit: emit}
}

// Push records v and restarts the quiet period. Earlier pending values are
// superseded.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq, v) })
}

func (d *Debouncer) fire(seq uint64, v string) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if seq != d.seq || (d.emitted && v == d.last) {
		d.mu.Unlock()
		return
	}
	d.last = v
	d.emitted = true
	d.mu.Unlock()

	d.emit(v)
}
