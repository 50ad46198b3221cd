package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"focuswatch/internal/analytics"
	"focuswatch/internal/config"
	"focuswatch/internal/db"
	"focuswatch/internal/tracker"
)

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	date := fs.String("date", "", "Day to report on (YYYY-MM-DD, default today)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	day := time.Now()
	if *date != "" {
		day, err = time.ParseInLocation("2006-01-02", *date, time.Local)
		if err != nil {
			log.Fatalf("parsing -date: %v", err)
		}
	}

	database := mustOpenDB(cfg)
	defer database.Close()

	printReports(os.Stdout, context.Background(), cfg, database, nil, day)
}

// printReports loads the day's sessions, extends them with the
// live snapshot when a tracker is running in this process, and
// renders all four reports plus the feed summary.
func printReports(
	w io.Writer,
	ctx context.Context,
	cfg config.Config,
	database *db.DB,
	tr *tracker.Tracker,
	day time.Time,
) {
	sessions, err := database.SessionsForDay(ctx, day)
	if err != nil {
		// A failed query degrades to an empty report.
		log.Printf("report: loading sessions: %v", err)
		sessions = nil
	}
	if tr != nil {
		if live, ok := tr.Snapshot(); ok {
			sessions = append(sessions, live)
		}
	}

	params := analytics.Params{
		DeepThreshold:    cfg.DeepThreshold,
		DistractionShort: cfg.DistractionShort,
		SwitchPenalty:    cfg.SwitchPenalty,
	}

	renderGeneral(w, analytics.General(sessions, params))
	renderFocus(w, analytics.Focus(sessions, params))
	renderPattern(w, analytics.Pattern(sessions, params))
	renderDistractions(w, analytics.Distractions(sessions, params))

	counts, err := database.EventCountsByType(ctx, day)
	if err != nil {
		log.Printf("report: loading event counts: %v", err)
		return
	}
	renderFeedSummary(w, counts)
}

func renderGeneral(w io.Writer, r analytics.GeneralReport) {
	fmt.Fprintf(w, "\n== General ==\n")
	fmt.Fprintf(w, "Active time:     %s (%d sessions)\n",
		analytics.FormatDuration(r.ActiveTime), r.ActiveSessions)
	fmt.Fprintf(w, "Idle time:       %s (%d sessions)\n",
		analytics.FormatDuration(r.IdleTime), r.IdleSessions)
	fmt.Fprintf(w, "Mean session:    %s\n",
		analytics.FormatDuration(r.MeanActive))
	if len(r.TopApps) > 0 {
		fmt.Fprintf(w, "Top applications:\n")
		for _, a := range r.TopApps {
			fmt.Fprintf(w, "  %-24s %s (%d)\n",
				a.App, analytics.FormatDuration(a.Total), a.Count)
		}
	}
}

func renderFocus(w io.Writer, r analytics.FocusReport) {
	fmt.Fprintf(w, "\n== Focus ==\n")
	fmt.Fprintf(w, "Deep sessions:   %d\n", r.DeepSessions)
	fmt.Fprintf(w, "Deep time:       %s (%.0f%% of active)\n",
		analytics.FormatDuration(r.DeepTime), r.Ratio*100)
	fmt.Fprintf(w, "Switches:        %d\n", r.Switches)
	fmt.Fprintf(w, "Focus score:     %.1f / 100\n", r.Score)
	if r.Longest != nil {
		fmt.Fprintf(w, "Longest session: %s (%s)\n",
			r.Longest.App,
			analytics.FormatDuration(r.Longest.Duration()))
	}
}

func renderPattern(w io.Writer, r analytics.PatternReport) {
	fmt.Fprintf(w, "\n== Pattern ==\n")
	fmt.Fprintf(w, "Active time:     %s\n",
		analytics.FormatDuration(r.ActiveTime))
	fmt.Fprintf(w, "Switches:        %d\n", r.Switches)
	fmt.Fprintf(w, "Mean session:    %s\n",
		analytics.FormatDuration(r.MeanActive))
	if r.HasPeak {
		fmt.Fprintf(w, "Peak hour:       %02d:00 (%s)\n",
			r.PeakHour, analytics.FormatDuration(r.PeakHourTime))
	} else {
		fmt.Fprintf(w, "Peak hour:       n/a\n")
	}
	if r.TopDestination != "" {
		fmt.Fprintf(w, "Top destination: %s\n", r.TopDestination)
	}
}

func renderDistractions(w io.Writer, r analytics.DistractionsReport) {
	fmt.Fprintf(w, "\n== Distractions (<= %s) ==\n",
		analytics.FormatDuration(r.Threshold))
	if len(r.Apps) == 0 {
		fmt.Fprintf(w, "No short sessions.\n")
	}
	for _, a := range r.Apps {
		fmt.Fprintf(w, "  %-24s %d short, total %s, mean %s\n",
			a.App, a.Count,
			analytics.FormatDuration(a.Total),
			analytics.FormatDuration(a.Mean))
	}
	if r.TopDestination != "" {
		fmt.Fprintf(w, "Top destination: %s\n", r.TopDestination)
	}
	if r.HasFirst {
		fmt.Fprintf(w, "First distraction after: %s\n",
			analytics.FormatDuration(r.TimeToFirst))
	} else {
		fmt.Fprintf(w, "First distraction after: n/a\n")
	}
}

func renderFeedSummary(w io.Writer, counts []db.TypeCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n== GitHub activity ==\n")
	for _, tc := range counts {
		fmt.Fprintf(w, "  %-24s %d\n", tc.Type, tc.Count)
	}
}
