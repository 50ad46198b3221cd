package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"focuswatch/internal/db"
	"focuswatch/internal/sampler"
)

// recordingStore captures inserted sessions and optionally
// enforces a write floor like the real store does.
type recordingStore struct {
	sessions []db.Session
	floor    time.Duration
	failNext bool
}

func (r *recordingStore) InsertSession(
	_ context.Context, s db.Session,
) (bool, error) {
	if r.failNext {
		r.failNext = false
		return false, errors.New("disk full")
	}
	if s.Duration() < r.floor {
		return false, nil
	}
	r.sessions = append(r.sessions, s)
	return true, nil
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func sample(ts time.Time, app string, pid int, title string) sampler.Sample {
	return sampler.Sample{
		Time: ts, App: app, PID: pid, Title: title,
	}
}

func idleSample(ts time.Time) sampler.Sample {
	return sampler.Sample{Time: ts, Idle: true}.Normalize()
}

func newTestTracker(store *recordingStore, clock *time.Time) *Tracker {
	return New(store, Options{
		Grace: 5 * time.Second,
		Floor: 5 * time.Second,
		Now:   func() time.Time { return *clock },
	})
}

func TestAdvance_OpensImmediatelyOnFirstSample(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)

	tr.Advance(context.Background(), sample(at(0), "Editor", 1, "main.go"))

	clock = at(10000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "Editor", live.App)
	assert.Equal(t, at(0), live.Start)
	assert.Equal(t, at(10000), live.End)
	assert.Empty(t, store.sessions, "nothing persisted yet")
}

func TestAdvance_TitleChangeNeverFragments(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, "main.go"))
	for ms := 1000; ms <= 60000; ms += 1000 {
		title := "main.go"
		if ms%2000 == 0 {
			title = "other.go"
		}
		tr.Advance(ctx, sample(at(ms), "Editor", 1, title))
	}

	assert.Empty(t, store.sessions)
	clock = at(60000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, at(0), live.Start)
	assert.Equal(t, "other.go", live.Title, "title tracks the latest sample")
}

// The flicker scenario: Editor at t=0, Browser at t=4000 starts a
// pending switch, Editor again at t=8000 cancels it before the
// grace window elapsed. No Browser session may ever exist and the
// Editor session must stay unbroken.
func TestAdvance_FlickerRevertCancelsPending(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(4000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(8000), "Editor", 1, ""))

	assert.Empty(t, store.sessions)

	clock = at(8000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "Editor", live.App)
	assert.Equal(t, at(0), live.Start)
	assert.GreaterOrEqual(t, live.Duration(), 8*time.Second)
}

func TestAdvance_SwitchConfirmsAtExactGrace(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(10000), "Browser", 2, "news"))
	// Exactly grace after first Browser observation.
	tr.Advance(ctx, sample(at(15000), "Browser", 2, "news"))

	if assert.Len(t, store.sessions, 1) {
		closed := store.sessions[0]
		assert.Equal(t, "Editor", closed.App)
		assert.Equal(t, at(0), closed.Start)
		// The closed session ends where the candidate was first
		// seen, not where it was confirmed.
		assert.Equal(t, at(10000), closed.End)
	}

	clock = at(16000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "Browser", live.App)
	assert.Equal(t, at(10000), live.Start, "new session backdated to first sighting")
}

func TestAdvance_OneUnderGraceDoesNotConfirm(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(10000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(14999), "Browser", 2, ""))
	// Focus returns before confirmation.
	tr.Advance(ctx, sample(at(15100), "Editor", 1, ""))

	assert.Empty(t, store.sessions, "original session unbroken")

	clock = at(20000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "Editor", live.App)
	assert.Equal(t, at(0), live.Start)
}

func TestAdvance_CandidateChangeRestartsClock(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(1000), "Browser", 2, ""))
	// A different candidate appears; the grace clock restarts
	// from its own first sighting.
	tr.Advance(ctx, sample(at(4000), "Chat", 3, ""))
	tr.Advance(ctx, sample(at(6500), "Chat", 3, ""))
	assert.Empty(t, store.sessions)

	tr.Advance(ctx, sample(at(9000), "Chat", 3, ""))
	if assert.Len(t, store.sessions, 1) {
		assert.Equal(t, "Editor", store.sessions[0].App)
		assert.Equal(t, at(4000), store.sessions[0].End)
	}
}

func TestAdvance_IdleIsAnOrdinaryKey(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, idleSample(at(60000)))
	tr.Advance(ctx, idleSample(at(65000)))

	if assert.Len(t, store.sessions, 1) {
		assert.Equal(t, "Editor", store.sessions[0].App)
	}

	clock = at(70000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, sampler.IdleApp, live.App)
	assert.Equal(t, 0, live.PID)
	assert.True(t, live.Idle)
}

// Confirmed sessions partition time: each closed session ends
// exactly where the next one starts, with the final open session
// picking up from the last boundary.
func TestAdvance_BoundariesPartitionTime(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	apps := []struct {
		app string
		pid int
	}{
		{"Editor", 1}, {"Browser", 2}, {"Chat", 3}, {"Editor", 1},
	}
	ms := 0
	for _, a := range apps {
		for i := 0; i < 30; i++ {
			tr.Advance(ctx, sample(at(ms), a.app, a.pid, ""))
			ms += 1000
		}
	}

	for i := 1; i < len(store.sessions); i++ {
		assert.Equal(t,
			store.sessions[i-1].End, store.sessions[i].Start,
			"no gap or overlap between consecutive sessions",
		)
	}
	clock = at(ms)
	live, ok := tr.Snapshot()
	if assert.True(t, ok) && assert.NotEmpty(t, store.sessions) {
		last := store.sessions[len(store.sessions)-1]
		assert.Equal(t, last.End, live.Start)
	}
}

// Back-to-back switches confirm in turn, and the second session
// is backdated to the moment its candidate was first seen, not
// to when the first switch confirmed.
func TestAdvance_BackToBackSwitchesBothConfirm(t *testing.T) {
	store := &recordingStore{floor: 5 * time.Second}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(20000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(25000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(28000), "Chat", 3, ""))
	tr.Advance(ctx, sample(at(33000), "Chat", 3, ""))

	// Editor[0,20s) persisted; Browser[20s,28s) persisted.
	if assert.Len(t, store.sessions, 2) {
		assert.Equal(t, "Editor", store.sessions[0].App)
		assert.Equal(t, "Browser", store.sessions[1].App)
		assert.Equal(t, at(20000), store.sessions[1].Start)
		assert.Equal(t, at(28000), store.sessions[1].End)
	}
}

func TestFlush_PersistsOpenSessionAndDropsPending(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, "main.go"))
	tr.Advance(ctx, sample(at(30000), "Browser", 2, ""))

	clock = at(31000)
	tr.Flush(ctx)

	if assert.Len(t, store.sessions, 1) {
		closed := store.sessions[0]
		assert.Equal(t, "Editor", closed.App)
		assert.Equal(t, at(0), closed.Start)
		assert.Equal(t, at(31000), closed.End)
	}

	_, ok := tr.Snapshot()
	assert.False(t, ok, "no live session after flush")

	// Flushing again is a no-op.
	tr.Flush(ctx)
	assert.Len(t, store.sessions, 1)
}

func TestPersistFailureDoesNotStopTracking(t *testing.T) {
	store := &recordingStore{failNext: true}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(10000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(15000), "Browser", 2, ""))

	// The Editor write failed, but the switch still happened.
	assert.Empty(t, store.sessions)
	clock = at(16000)
	live, ok := tr.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, "Browser", live.App)

	// The next close persists normally.
	tr.Advance(ctx, sample(at(30000), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(35000), "Editor", 1, ""))
	if assert.Len(t, store.sessions, 1) {
		assert.Equal(t, "Browser", store.sessions[0].App)
	}
}

func TestSnapshot_RespectsFloor(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)

	tr.Advance(context.Background(), sample(at(0), "Editor", 1, ""))

	clock = at(3000)
	_, ok := tr.Snapshot()
	assert.False(t, ok, "below floor")

	clock = at(5000)
	_, ok = tr.Snapshot()
	assert.True(t, ok, "at floor")
}

func TestSetGraceTakesEffect(t *testing.T) {
	store := &recordingStore{}
	clock := at(0)
	tr := newTestTracker(store, &clock)
	ctx := context.Background()

	tr.SetGrace(1 * time.Second)

	tr.Advance(ctx, sample(at(0), "Editor", 1, ""))
	tr.Advance(ctx, sample(at(10000), "Browser", 2, ""))
	tr.Advance(ctx, sample(at(11000), "Browser", 2, ""))

	assert.Len(t, store.sessions, 1, "1s grace confirms quickly")
}
