package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"focuswatch/internal/db"
)

var day = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

// sess builds an active session starting offset after 09:00
// local with the given duration.
func sess(app string, offset, dur time.Duration) db.Session {
	return db.Session{
		App:   app,
		PID:   1,
		Start: day.Add(offset),
		End:   day.Add(offset + dur),
	}
}

func idleSess(offset, dur time.Duration) db.Session {
	return db.Session{
		App:   "Idle",
		Start: day.Add(offset),
		End:   day.Add(offset + dur),
		Idle:  true,
	}
}

func params() Params {
	return Params{
		DeepThreshold:    20 * time.Minute,
		DistractionShort: 90 * time.Second,
		SwitchPenalty:    0.5,
	}
}

func TestGeneral(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 30*time.Minute),
		idleSess(30*time.Minute, 10*time.Minute),
		sess("Browser", 40*time.Minute, 10*time.Minute),
		sess("Editor", 50*time.Minute, 20*time.Minute),
	}

	r := General(sessions, params())

	assert.Equal(t, 60*time.Minute, r.ActiveTime)
	assert.Equal(t, 10*time.Minute, r.IdleTime)
	assert.Equal(t, 3, r.ActiveSessions)
	assert.Equal(t, 1, r.IdleSessions)
	assert.Equal(t, 20*time.Minute, r.MeanActive)

	want := []AppTotal{
		{App: "Editor", Total: 50 * time.Minute, Count: 2},
		{App: "Browser", Total: 10 * time.Minute, Count: 1},
	}
	if diff := cmp.Diff(want, r.TopApps); diff != "" {
		t.Errorf("TopApps mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneral_TopAppsTieKeepsGroupingOrder(t *testing.T) {
	sessions := []db.Session{
		sess("Browser", 0, 10*time.Minute),
		sess("Editor", 10*time.Minute, 10*time.Minute),
	}
	r := General(sessions, params())
	// Equal totals: Browser grouped first, so it ranks first.
	assert.Equal(t, "Browser", r.TopApps[0].App)
	assert.Equal(t, "Editor", r.TopApps[1].App)
}

func TestGeneral_TopAppsTruncated(t *testing.T) {
	var sessions []db.Session
	for i := 0; i < 15; i++ {
		app := string(rune('A' + i))
		sessions = append(sessions,
			sess(app, time.Duration(i)*time.Minute, time.Duration(15-i)*time.Second))
	}
	r := General(sessions, params())
	assert.Len(t, r.TopApps, DefaultTopApps)
}

func TestGeneral_Empty(t *testing.T) {
	r := General(nil, params())
	assert.Zero(t, r.ActiveTime)
	assert.Zero(t, r.MeanActive)
	assert.Empty(t, r.TopApps)
}

// The spec'd focus scenario: deep threshold 20min, a 25min and a
// 5min session with one switch between them. deepTime=25min,
// ratio=25/30, score=clamp(83.3-0.5)=82.8.
func TestFocus_Scenario(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 25*time.Minute),
		sess("Browser", 25*time.Minute, 5*time.Minute),
	}

	r := Focus(sessions, params())

	assert.Equal(t, 1, r.DeepSessions)
	assert.Equal(t, 25*time.Minute, r.DeepTime)
	assert.Equal(t, 1, r.Switches)
	assert.InDelta(t, 25.0/30.0, r.Ratio, 1e-9)
	assert.InDelta(t, 25.0/30.0*100-0.5, r.Score, 1e-9)
	if assert.NotNil(t, r.Longest) {
		assert.Equal(t, "Editor", r.Longest.App)
		assert.Equal(t, 25*time.Minute, r.Longest.Duration())
	}
}

func TestFocus_ScoreClamped(t *testing.T) {
	// Many switches between short sessions drive the raw score
	// negative; the report clamps at 0.
	var sessions []db.Session
	for i := 0; i < 30; i++ {
		app := "A"
		if i%2 == 1 {
			app = "B"
		}
		sessions = append(sessions,
			sess(app, time.Duration(i)*time.Minute, time.Minute))
	}
	r := Focus(sessions, params())
	assert.Equal(t, 0.0, r.Score)

	// A single all-deep session scores exactly 100.
	r = Focus([]db.Session{sess("Editor", 0, time.Hour)}, params())
	assert.Equal(t, 100.0, r.Score)
}

func TestFocus_Empty(t *testing.T) {
	r := Focus(nil, params())
	assert.Equal(t, 0.0, r.Ratio)
	assert.Equal(t, 0.0, r.Score)
	assert.Nil(t, r.Longest)
}

func TestFocus_IdleExcluded(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 25*time.Minute),
		idleSess(25*time.Minute, 30*time.Minute),
		sess("Editor", 55*time.Minute, 25*time.Minute),
	}
	r := Focus(sessions, params())
	assert.Equal(t, 2, r.DeepSessions)
	assert.Equal(t, 0, r.Switches, "idle gap between same app is not a switch")
	assert.InDelta(t, 1.0, r.Ratio, 1e-9)
}

func TestSwitches_CaseInsensitive(t *testing.T) {
	sessions := []db.Session{
		sess("firefox", 0, time.Minute),
		sess("Firefox", time.Minute, time.Minute),
		sess("Editor", 2*time.Minute, time.Minute),
	}
	r := Pattern(sessions, params())
	assert.Equal(t, 1, r.Switches)
}

func TestPattern(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 40*time.Minute),                // 09:xx
		sess("Browser", 40*time.Minute, 10*time.Minute),  // 09:xx
		sess("Editor", 60*time.Minute, 15*time.Minute),   // 10:xx
		sess("Chat", 80*time.Minute, 5*time.Minute),      // 10:xx
		sess("Browser", 100*time.Minute, 5*time.Minute),  // 10:xx
	}

	r := Pattern(sessions, params())

	assert.Equal(t, 75*time.Minute, r.ActiveTime)
	assert.Equal(t, 4, r.Switches)
	assert.Equal(t, 15*time.Minute, r.MeanActive)
	assert.True(t, r.HasPeak)
	assert.Equal(t, day.Hour(), r.PeakHour)
	assert.Equal(t, 50*time.Minute, r.PeakHourTime)
	// Browser is reached twice as a destination; every other app
	// only once.
	assert.Equal(t, "Browser", r.TopDestination)
}

func TestPattern_DestinationTieBreak(t *testing.T) {
	// Both Browser and Chat are reached once; Browser was
	// reached first in session order, so it wins the tie.
	sessions := []db.Session{
		sess("Editor", 0, time.Minute),
		sess("Browser", 1*time.Minute, time.Minute),
		sess("Chat", 2*time.Minute, time.Minute),
	}
	r := Pattern(sessions, params())
	assert.Equal(t, "Browser", r.TopDestination)
}

func TestPattern_Empty(t *testing.T) {
	r := Pattern(nil, params())
	assert.False(t, r.HasPeak)
	assert.Empty(t, r.TopDestination)
	assert.Zero(t, r.MeanActive)
}

// The spec'd distraction scenario: threshold 90s, durations
// [30s, 200s, 45s] for apps [A, B, A]. Short sessions are the
// two A sessions: count=2, total=75s, mean=37.5s.
func TestDistractions_Scenario(t *testing.T) {
	sessions := []db.Session{
		sess("A", 0, 30*time.Second),
		sess("B", 30*time.Second, 200*time.Second),
		sess("A", 230*time.Second, 45*time.Second),
	}

	r := Distractions(sessions, params())

	if assert.Len(t, r.Apps, 1) {
		a := r.Apps[0]
		assert.Equal(t, "A", a.App)
		assert.Equal(t, 2, a.Count)
		assert.Equal(t, 75*time.Second, a.Total)
		assert.Equal(t, 37*time.Second+500*time.Millisecond, a.Mean)
	}
	assert.True(t, r.HasFirst)
	assert.Equal(t, time.Duration(0), r.TimeToFirst,
		"the first active session is itself short")
}

func TestDistractions_SortByCountThenMean(t *testing.T) {
	sessions := []db.Session{
		sess("Slow", 0, 80*time.Second),
		sess("Fast", 2*time.Minute, 10*time.Second),
		sess("Slow", 4*time.Minute, 80*time.Second),
		sess("Fast", 6*time.Minute, 10*time.Second),
		sess("Once", 8*time.Minute, 5*time.Second),
	}

	r := Distractions(sessions, params())

	if assert.Len(t, r.Apps, 3) {
		// Fast and Slow tie on count; Fast's smaller mean ranks
		// it first.
		assert.Equal(t, "Fast", r.Apps[0].App)
		assert.Equal(t, "Slow", r.Apps[1].App)
		assert.Equal(t, "Once", r.Apps[2].App)
	}
}

func TestDistractions_TimeToFirst(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 30*time.Minute),
		sess("Chat", 30*time.Minute, time.Minute),
	}
	r := Distractions(sessions, params())
	assert.True(t, r.HasFirst)
	assert.Equal(t, 30*time.Minute, r.TimeToFirst)
}

func TestDistractions_NoShortSessions(t *testing.T) {
	sessions := []db.Session{
		sess("Editor", 0, 30*time.Minute),
	}
	r := Distractions(sessions, params())
	assert.Empty(t, r.Apps)
	assert.False(t, r.HasFirst)
}

func TestDistractions_Empty(t *testing.T) {
	r := Distractions(nil, params())
	assert.Empty(t, r.Apps)
	assert.False(t, r.HasFirst)
	assert.Empty(t, r.TopDestination)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 7 * time.Second, "00:00:07"},
		{"minutes", 5*time.Minute + 3*time.Second, "00:05:03"},
		{"hours", 2*time.Hour + 14*time.Minute + 9*time.Second, "02:14:09"},
		{"over a day", 26 * time.Hour, "26:00:00"},
		{"sub-second truncated", 1500 * time.Millisecond, "00:00:01"},
		{"negative clamped", -time.Minute, "00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}
