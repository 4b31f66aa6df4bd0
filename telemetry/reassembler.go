// Package telemetry reassembles APRS telemetry definitions (PARM, UNIT,
// EQNS and BITS messages) that arrive as separate packets.
package telemetry

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"aprsnoop/clock"
	"aprsnoop/metrics"
	"aprsnoop/packet"
)

// Defaults for the sweep.
const (
	DefaultCleanInterval = 60 * time.Second
	DefaultMaxAge        = time.Hour
)

// Reassembler merges telemetry packets per Key and writes a line once the
// first channel is fully defined. A background sweep drops entries that
// have not been updated for longer than maxAge.
type Reassembler struct {
	out           io.Writer
	clock         clock.Clock
	cleanInterval time.Duration
	maxAge        time.Duration

	mu      sync.Mutex
	entries map[Key]*Entry

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Reassembler.
type Option func(*Reassembler)

// WithClock replaces wall time.
func WithClock(c clock.Clock) Option {
	return func(r *Reassembler) { r.clock = c }
}

// WithCleanInterval sets how often the sweep runs.
func WithCleanInterval(d time.Duration) Option {
	return func(r *Reassembler) {
		if d > 0 {
			r.cleanInterval = d
		}
	}
}

// WithMaxAge sets how long an entry may go without updates.
func WithMaxAge(d time.Duration) Option {
	return func(r *Reassembler) {
		if d > 0 {
			r.maxAge = d
		}
	}
}

// New creates a Reassembler writing complete definitions to out. The sweep
// does not run until Start is called.
func New(out io.Writer, opts ...Option) *Reassembler {
	r := &Reassembler{
		out:           out,
		clock:         clock.Real{},
		cleanInterval: DefaultCleanInterval,
		maxAge:        DefaultMaxAge,
		entries:       make(map[Key]*Entry),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle merges pkt into the entry for its key. When channel 0 has a name,
// an equation and a unit, the whole entry is written as one line.
//
// Only channel 0 is checked, so a line can be written while later channels
// are still incomplete.
func (r *Reassembler) Handle(pkt *packet.Packet) {
	key := KeyFor(pkt)

	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &Entry{}
	}
	entry.merge(pkt)
	if len(entry.Slots) == 0 {
		// An empty PARM resets a stored entry to nothing.
		if ok {
			delete(r.entries, key)
			metrics.TelemetryEntries.Set(float64(len(r.entries)))
		}
		r.mu.Unlock()
		return
	}
	entry.LastUpdate = r.clock.Now()
	r.entries[key] = entry
	metrics.TelemetryEntries.Set(float64(len(r.entries)))

	if !entry.Slots[0].Complete() {
		r.mu.Unlock()
		return
	}
	data := entry.String()
	r.mu.Unlock()

	metrics.TelemetryEmittedTotal.Inc()
	fmt.Fprintf(r.out, "telemetry(%s): to(%s), from(%s), data(%s)\n",
		key.Addressee, packet.NonEmpty(key.To), packet.NonEmpty(key.From), data)
}

// Entry returns a copy of the entry for key.
func (r *Reassembler) Entry(key Key) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

// Len returns the number of entries being reassembled.
func (r *Reassembler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Start launches the sweep. It fires every clean interval until Stop.
func (r *Reassembler) Start() {
	r.startOnce.Do(func() {
		timer := r.clock.NewTimer(r.cleanInterval)
		go r.sweepLoop(timer)
	})
}

// Stop cancels the sweep and waits for it to exit. Safe to call more than
// once and without Start.
func (r *Reassembler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		started := true
		r.startOnce.Do(func() { started = false })
		if started {
			<-r.done
		}
	})
}

func (r *Reassembler) sweepLoop(timer clock.Timer) {
	defer close(r.done)
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-timer.C():
			r.sweep()
			timer.Reset(r.cleanInterval)
		}
	}
}

// sweep removes entries whose last update is older than maxAge. The stale
// set is taken first and deleted in a second critical section, so an entry
// refreshed in between is still deleted.
func (r *Reassembler) sweep() {
	keys := r.staleKeys(r.clock.Now())
	if len(keys) == 0 {
		return
	}
	r.evict(keys)
	log.Printf("Telemetry sweep evicted %d stale definitions", len(keys))
}

func (r *Reassembler) staleKeys(now time.Time) []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []Key
	for k, e := range r.entries {
		if e.LastUpdate.Add(r.maxAge).Before(now) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r *Reassembler) evict(keys []Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.entries, k)
	}
	metrics.TelemetryEvictedTotal.Add(float64(len(keys)))
	metrics.TelemetryEntries.Set(float64(len(r.entries)))
}
