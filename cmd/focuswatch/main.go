package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focuswatch/internal/config"
	"focuswatch/internal/db"
	"focuswatch/internal/feed"
	"focuswatch/internal/sampler"
	"focuswatch/internal/tracker"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const watcherDebounce = 500 * time.Millisecond

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "track":
			runTrack(os.Args[2:])
			return
		case "report":
			runReport(os.Args[2:])
			return
		case "feed":
			runFeed(os.Args[2:])
			return
		case "update":
			runUpdate(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("focuswatch %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runTrack(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`focuswatch %s - foreground focus tracker

Polls the active window and system idle time, debounces the raw
samples into session rows in SQLite, and reports focus quality,
switching patterns, and distraction events. Optionally imports
the public GitHub event feed of a configured user.

Usage:
  focuswatch [flags]          Start tracking (default command)
  focuswatch track [flags]    Start tracking (explicit)
  focuswatch report [flags]   Print the reports for a day
  focuswatch feed             Import the GitHub event feed once
  focuswatch update [flags]   Check for a newer release
  focuswatch version          Show version information
  focuswatch help             Show this help

Track flags:
  -poll-ms int        Sample interval in milliseconds (default 250)
  -grace-ms int       Switch debounce window in milliseconds (default 5000)
  -floor-ms int       Minimum session duration to persist (default 5000)
  -github-user str    GitHub user whose public events to import

Report flags:
  -date string        Day to report on (YYYY-MM-DD, default today)

Update flags:
  -force              Force check (ignore cache)

Environment variables:
  FOCUSWATCH_DATA_DIR       Data directory (database, config)
  FOCUSWATCH_GITHUB_USER    GitHub user for the event feed
  FOCUSWATCH_GITHUB_TOKEN   Token for the GitHub API

While tracking, SIGUSR1 prints the reports for today including
the live session. Data is stored in ~/.focuswatch/ by default.
`, version)
}

func runTrack(args []string) {
	cfg := mustLoadConfig(args)
	database := mustOpenDB(cfg)
	defer database.Close()

	sp, err := sampler.NewCommandSampler(
		cfg.WindowProbe, cfg.IdleProbe, cfg.ProbeTimeout,
	)
	if err != nil {
		log.Fatalf("configuring sampler: %v", err)
	}

	tr := tracker.New(database, tracker.Options{
		Grace: cfg.GraceSwitch,
		Floor: cfg.MinSessionWrite,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	stopWatcher := startConfigWatcher(cfg, database, tr)
	defer stopWatcher()

	if cfg.GithubUser != "" {
		importer := feed.New(database, feed.Options{
			User:     cfg.GithubUser,
			Token:    cfg.GithubToken,
			PageSize: cfg.FeedPageSize,
			MaxPages: cfg.FeedMaxPages,
		})
		go importer.Loop(ctx, cfg.FeedPollInterval)
	}

	go serveReportSignals(ctx, cfg, database, tr)

	fmt.Printf("focuswatch %s tracking (poll %s, grace %s)\n",
		version, cfg.PollInterval, cfg.GraceSwitch)

	tr.Loop(ctx, sp, tracker.LoopOptions{
		Interval:      cfg.PollInterval,
		IdleThreshold: cfg.IdleThreshold,
	})
}

// startConfigWatcher watches config.json and applies tunable
// changes to the running tracker and store.
func startConfigWatcher(
	cfg config.Config, database *db.DB, tr *tracker.Tracker,
) func() {
	w, err := config.NewWatcher(
		cfg.ConfigPath(), watcherDebounce,
		func(next config.Config) {
			tr.SetGrace(next.GraceSwitch)
			tr.SetFloor(next.MinSessionWrite)
			database.SetWriteFloor(next.MinSessionWrite)
			log.Printf(
				"config reloaded (grace %s, floor %s)",
				next.GraceSwitch, next.MinSessionWrite,
			)
		},
	)
	if err != nil {
		log.Printf("config watcher disabled: %v", err)
		return func() {}
	}
	w.Start()
	return w.Stop
}

func runFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	user := fs.String("user", "", "GitHub user (overrides config)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *user != "" {
		cfg.GithubUser = *user
	}
	if cfg.GithubUser == "" {
		log.Fatalf("no GitHub user configured (set github_user or -user)")
	}

	database := mustOpenDB(cfg)
	defer database.Close()

	importer := feed.New(database, feed.Options{
		User:     cfg.GithubUser,
		Token:    cfg.GithubToken,
		PageSize: cfg.FeedPageSize,
		MaxPages: cfg.FeedMaxPages,
	})
	n, err := importer.Import(context.Background())
	if err != nil {
		log.Fatalf("importing feed: %v", err)
	}
	fmt.Printf("Imported %d new event(s) for %s\n", n, cfg.GithubUser)
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("focuswatch", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: focuswatch [track] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterTrackFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustOpenDB(cfg config.Config) *db.DB {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	database.SetWriteFloor(cfg.MinSessionWrite)
	return database
}
