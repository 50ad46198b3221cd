package analytics

import (
	"sort"
	"time"

	"focuswatch/internal/db"
)

// AppTotal is one application's cumulative active duration.
type AppTotal struct {
	App   string
	Total time.Duration
	Count int
}

// GeneralReport summarizes the day's activity.
type GeneralReport struct {
	ActiveTime     time.Duration
	IdleTime       time.Duration
	ActiveSessions int
	IdleSessions   int
	MeanActive     time.Duration
	TopApps        []AppTotal
}

// General computes the overall activity summary. Top apps are
// ranked by cumulative active duration descending; ties keep
// first-encountered grouping order.
func General(sessions []db.Session, p Params) GeneralReport {
	var r GeneralReport

	totals := make(map[string]*AppTotal)
	var order []string

	for _, s := range sessions {
		if s.Idle {
			r.IdleSessions++
			r.IdleTime += s.Duration()
			continue
		}
		r.ActiveSessions++
		r.ActiveTime += s.Duration()

		at, ok := totals[s.App]
		if !ok {
			at = &AppTotal{App: s.App}
			totals[s.App] = at
			order = append(order, s.App)
		}
		at.Total += s.Duration()
		at.Count++
	}

	r.MeanActive = meanDuration(r.ActiveTime, r.ActiveSessions)

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]].Total > totals[order[j]].Total
	})
	if len(order) > p.topApps() {
		order = order[:p.topApps()]
	}
	for _, app := range order {
		r.TopApps = append(r.TopApps, *totals[app])
	}
	return r
}

// FocusReport grades how much of the active time was deep work.
type FocusReport struct {
	DeepSessions int
	DeepTime     time.Duration
	Switches     int
	Ratio        float64 // deep time / total active time
	Score        float64 // clamped to [0, 100]
	Longest      *db.Session
}

// Focus computes the focus-quality report over the active
// sessions.
func Focus(sessions []db.Session, p Params) FocusReport {
	ordered := active(sessions)

	var r FocusReport
	var totalActive time.Duration

	for i, s := range ordered {
		d := s.Duration()
		totalActive += d
		if d >= p.DeepThreshold {
			r.DeepSessions++
			r.DeepTime += d
		}
		if r.Longest == nil || d > r.Longest.Duration() {
			r.Longest = &ordered[i]
		}
	}

	r.Switches = switches(ordered)

	if totalActive > 0 {
		r.Ratio = float64(r.DeepTime) / float64(totalActive)
	}
	score := r.Ratio*100 - float64(r.Switches)*p.SwitchPenalty
	r.Score = min(max(score, 0), 100)
	return r
}

// PatternReport describes when and how the activity happened.
type PatternReport struct {
	ActiveTime     time.Duration
	Switches       int
	MeanActive     time.Duration
	PeakHour       int // local hour of day, 0-23
	PeakHourTime   time.Duration
	HasPeak        bool
	TopDestination string
}

// Pattern computes switching and timing patterns over the active
// sessions. The peak hour buckets cumulative duration by the
// local start hour; ties keep the first bucket encountered.
func Pattern(sessions []db.Session, p Params) PatternReport {
	ordered := active(sessions)

	var r PatternReport

	hourTotals := make(map[int]time.Duration)
	var hourOrder []int

	for _, s := range ordered {
		r.ActiveTime += s.Duration()
		h := s.Start.Local().Hour()
		if _, seen := hourTotals[h]; !seen {
			hourOrder = append(hourOrder, h)
		}
		hourTotals[h] += s.Duration()
	}

	r.Switches = switches(ordered)
	r.MeanActive = meanDuration(r.ActiveTime, len(ordered))

	if len(hourOrder) > 0 {
		sort.SliceStable(hourOrder, func(i, j int) bool {
			return hourTotals[hourOrder[i]] > hourTotals[hourOrder[j]]
		})
		r.PeakHour = hourOrder[0]
		r.PeakHourTime = hourTotals[hourOrder[0]]
		r.HasPeak = true
	}

	r.TopDestination = topDestination(ordered)
	return r
}

// DistractionApp is one application's short-session aggregate.
type DistractionApp struct {
	App   string
	Count int
	Total time.Duration
	Mean  time.Duration
}

// DistractionsReport surfaces short-lived sessions and where the
// switching led.
type DistractionsReport struct {
	Threshold      time.Duration
	Apps           []DistractionApp
	TopDestination string
	TimeToFirst    time.Duration
	HasFirst       bool
}

// Distractions aggregates active sessions at or below the
// short-session threshold per application, ranked by count
// descending then mean duration ascending.
func Distractions(sessions []db.Session, p Params) DistractionsReport {
	ordered := active(sessions)

	r := DistractionsReport{Threshold: p.DistractionShort}

	aggs := make(map[string]*DistractionApp)
	var order []string
	var firstShort *db.Session

	for i, s := range ordered {
		if s.Duration() > p.DistractionShort {
			continue
		}
		if firstShort == nil {
			firstShort = &ordered[i]
		}
		a, ok := aggs[s.App]
		if !ok {
			a = &DistractionApp{App: s.App}
			aggs[s.App] = a
			order = append(order, s.App)
		}
		a.Count++
		a.Total += s.Duration()
	}

	for _, a := range aggs {
		a.Mean = meanDuration(a.Total, a.Count)
	}

	sort.SliceStable(order, func(i, j int) bool {
		ai, aj := aggs[order[i]], aggs[order[j]]
		if ai.Count != aj.Count {
			return ai.Count > aj.Count
		}
		return ai.Mean < aj.Mean
	})
	if len(order) > p.topApps() {
		order = order[:p.topApps()]
	}
	for _, app := range order {
		r.Apps = append(r.Apps, *aggs[app])
	}

	r.TopDestination = topDestination(ordered)

	if len(ordered) > 0 && firstShort != nil {
		elapsed := firstShort.Start.Sub(ordered[0].Start)
		if elapsed < 0 {
			elapsed = 0
		}
		r.TimeToFirst = elapsed
		r.HasFirst = true
	}
	return r
}
