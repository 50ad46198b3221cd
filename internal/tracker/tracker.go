// Package tracker turns the raw sample stream into durable
// session rows. A switch of foreground application only becomes a
// session boundary after the new key has been observed
// continuously for the grace window; shorter flickers never
// fragment the current session.
package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"focuswatch/internal/db"
	"focuswatch/internal/sampler"
)

// Store is the subset of the session store the tracker writes to.
type Store interface {
	InsertSession(ctx context.Context, s db.Session) (bool, error)
}

// live is the open, not-yet-persisted session.
type live struct {
	start  time.Time
	sample sampler.Sample
}

// candidate is a pending switch awaiting grace confirmation.
type candidate struct {
	firstSeen time.Time
	sample    sampler.Sample
}

// Tracker is the debounced session state machine. All mutation
// happens on the polling goroutine; Snapshot is safe to call
// from other goroutines.
type Tracker struct {
	store Store
	now   func() time.Time

	mu      sync.RWMutex
	grace   time.Duration
	floor   time.Duration
	current *live
	pending *candidate
}

// Options configures a Tracker.
type Options struct {
	Grace time.Duration // debounce window for switch confirmation
	Floor time.Duration // minimum duration for snapshot inclusion
	Now   func() time.Time
}

// New creates a Tracker writing closed sessions to store.
func New(store Store, opts Options) *Tracker {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		store: store,
		now:   now,
		grace: opts.Grace,
		floor: opts.Floor,
	}
}

// SetGrace updates the debounce window. Takes effect on the next
// sample.
func (t *Tracker) SetGrace(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.grace = d
}

// SetFloor updates the minimum duration for snapshot inclusion.
func (t *Tracker) SetFloor(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.floor = d
}

// Advance feeds one sample through the state machine.
func (t *Tracker) Advance(ctx context.Context, s sampler.Sample) {
	s = s.Normalize()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		// Startup/resume: open immediately, no debounce.
		t.current = &live{start: s.Time, sample: s}
		t.pending = nil
		return
	}

	if s.Key() == t.current.sample.Key() {
		// Same session. Title is not part of identity; keep the
		// latest one. A pending candidate means focus flickered
		// away and came back before the grace window elapsed:
		// cancel it, this was never a switch.
		t.current.sample.Title = s.Title
		t.pending = nil
		return
	}

	if t.pending == nil || t.pending.sample.Key() != s.Key() {
		// New (or different) switch candidate; the clock starts
		// from this observation.
		t.pending = &candidate{firstSeen: s.Time, sample: s}
		return
	}

	if s.Time.Sub(t.pending.firstSeen) >= t.grace {
		t.confirmLocked(ctx)
	}
}

// confirmLocked closes the current session at the candidate's
// first observation and opens the candidate as the new current
// session. Caller holds t.mu.
func (t *Tracker) confirmLocked(ctx context.Context) {
	closed := t.toSession(t.current.start, t.pending.firstSeen)
	t.current = &live{
		start:  t.pending.firstSeen,
		sample: t.pending.sample,
	}
	t.pending = nil

	t.persist(ctx, closed)
}

// persist writes a closed session. Failures are logged, never
// propagated: the loop must survive storage errors.
func (t *Tracker) persist(ctx context.Context, s db.Session) {
	if _, err := t.store.InsertSession(ctx, s); err != nil {
		log.Printf("tracker: persisting %s session: %v", s.App, err)
	}
}

// toSession builds a Session row from the current live state.
func (t *Tracker) toSession(start, end time.Time) db.Session {
	s := db.Session{
		Start: start,
		End:   end,
		App:   t.current.sample.App,
		PID:   t.current.sample.PID,
		Title: t.current.sample.Title,
		Idle:  t.current.sample.Idle,
	}
	if p := t.current.sample.ExePath; p != "" {
		s.ExePath = &p
	}
	return s
}

// Flush closes and persists the open session spanning up to now.
// Pending candidate state is discarded, not persisted. Called on
// shutdown.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		t.pending = nil
		return
	}
	closed := t.toSession(t.current.start, t.now())
	t.current = nil
	t.pending = nil

	t.persist(ctx, closed)
}

// Snapshot returns a read-only copy of the live session truncated
// to now. Reports include it alongside persisted rows. Returns
// false when no session is open or the open span is still below
// the floor.
func (t *Tracker) Snapshot() (db.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.current == nil {
		return db.Session{}, false
	}
	s := t.toSession(t.current.start, t.now())
	if s.Duration() < t.floor {
		return db.Session{}, false
	}
	return s, true
}
