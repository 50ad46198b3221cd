//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focuswatch/internal/config"
	"focuswatch/internal/db"
	"focuswatch/internal/tracker"
)

// serveReportSignals prints today's reports, including the live
// session snapshot, whenever the process receives SIGUSR1. The
// tracker state is only read, never mutated.
func serveReportSignals(
	ctx context.Context,
	cfg config.Config,
	database *db.DB,
	tr *tracker.Tracker,
) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			printReports(os.Stdout, ctx, cfg, database, tr, time.Now())
		}
	}
}
