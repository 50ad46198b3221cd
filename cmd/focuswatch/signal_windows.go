//go:build windows

package main

import (
	"context"

	"focuswatch/internal/config"
	"focuswatch/internal/db"
	"focuswatch/internal/tracker"
)

// serveReportSignals is a no-op on Windows, which has no
// SIGUSR1. Use the report subcommand instead.
func serveReportSignals(
	ctx context.Context,
	cfg config.Config,
	database *db.DB,
	tr *tracker.Tracker,
) {
}
