// Package analytics computes behavioral reports over a session
// log. Every function is pure: sessions in, structured report
// out, no storage access and no mutation. An empty session set
// yields zero values, never an error.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"focuswatch/internal/db"
)

// Params holds the analytics tunables.
type Params struct {
	DeepThreshold    time.Duration // deep-session boundary
	DistractionShort time.Duration // short-session boundary
	SwitchPenalty    float64       // focus-score penalty per switch
	TopApps          int           // list length for app rankings
}

// DefaultTopApps is used when Params.TopApps is zero.
const DefaultTopApps = 10

func (p Params) topApps() int {
	if p.TopApps <= 0 {
		return DefaultTopApps
	}
	return p.TopApps
}

// active returns the non-idle sessions ordered by start time.
// The input slice is not modified.
func active(sessions []db.Session) []db.Session {
	out := make([]db.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Idle {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// switches counts adjacent active-session pairs whose app
// differs, case-insensitively. Returning to the same app after
// an idle gap is not a switch.
func switches(ordered []db.Session) int {
	n := 0
	for i := 1; i < len(ordered); i++ {
		if !strings.EqualFold(ordered[i-1].App, ordered[i].App) {
			n++
		}
	}
	return n
}

// topDestination returns the most frequent switch destination:
// for every adjacent differing pair, the later session's app.
// Ties are broken by the destination reached first in session
// order (stable sort over first-encounter order), so the result
// is deterministic for a given session sequence.
func topDestination(ordered []db.Session) string {
	counts := make(map[string]int)
	var order []string
	for i := 1; i < len(ordered); i++ {
		if strings.EqualFold(ordered[i-1].App, ordered[i].App) {
			continue
		}
		app := ordered[i].App
		if _, seen := counts[app]; !seen {
			order = append(order, app)
		}
		counts[app]++
	}
	if len(order) == 0 {
		return ""
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order[0]
}

// meanDuration returns the mean of total over count, 0 for an
// empty set.
func meanDuration(total time.Duration, count int) time.Duration {
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// FormatDuration renders a duration as zero-padded HH:MM:SS.
// Hours are not capped at 24. Negative durations render as
// 00:00:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
