package main

import (
	"flag"
	"fmt"
	"log"

	"focuswatch/internal/config"
	"focuswatch/internal/update"
)

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	force := fs.Bool("force", false, "Force check (ignore cache)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	info, err := update.Check(version, *force, cfg.DataDir)
	if err != nil {
		log.Fatalf("checking for updates: %v", err)
	}
	if info == nil {
		fmt.Printf("focuswatch %s is up to date\n", version)
		return
	}
	fmt.Printf("focuswatch %s is available (running %s)\n%s\n",
		info.LatestVersion, info.CurrentVersion, info.URL)
}
