// Package update checks GitHub releases for a newer focuswatch
// build. It only reports availability; installing is left to the
// platform package manager.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	githubAPIURL  = "https://api.github.com/repos/focuswatch/focuswatch/releases/latest"
	cacheFileName = "update_check.json"
	cacheDuration = 1 * time.Hour
)

// Release represents a GitHub release.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Info describes an available update.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	URL            string
}

type cachedCheck struct {
	CheckedAt time.Time `json:"checked_at"`
	Version   string    `json:"version"`
}

// isNewer reports whether latest is a higher semver than current.
func isNewer(latest, current string) bool {
	return semver.Compare("v"+latest, "v"+current) > 0
}

// IsDevBuild reports whether the version is a development build
// (not a release tag).
func IsDevBuild(version string) bool {
	return version == "" || version == "dev" ||
		!semver.IsValid("v"+strings.TrimPrefix(version, "v"))
}

// Check returns Info when a newer release exists, nil otherwise.
// A 1-hour cache in cacheDir avoids hammering the GitHub API;
// forceCheck bypasses it.
func Check(
	currentVersion string, forceCheck bool, cacheDir string,
) (*Info, error) {
	cleanVersion := strings.TrimPrefix(currentVersion, "v")

	if !forceCheck {
		if info, done := checkCache(
			currentVersion, cleanVersion, cacheDir,
		); done {
			return info, nil
		}
	}

	release, err := fetchLatestRelease()
	if err != nil {
		return nil, fmt.Errorf("check for updates: %w", err)
	}
	saveCache(release.TagName, cacheDir)

	latestVersion := strings.TrimPrefix(release.TagName, "v")
	if IsDevBuild(cleanVersion) || !isNewer(latestVersion, cleanVersion) {
		return nil, nil
	}

	return &Info{
		CurrentVersion: currentVersion,
		LatestVersion:  release.TagName,
		URL:            release.HTMLURL,
	}, nil
}

// checkCache consults the cached check. The second return is
// true when the cache answered and no network call is needed.
func checkCache(
	currentVersion, cleanVersion, cacheDir string,
) (*Info, bool) {
	data, err := os.ReadFile(filepath.Join(cacheDir, cacheFileName))
	if err != nil {
		return nil, false
	}
	var cached cachedCheck
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if time.Since(cached.CheckedAt) > cacheDuration {
		return nil, false
	}

	latest := strings.TrimPrefix(cached.Version, "v")
	if IsDevBuild(cleanVersion) || !isNewer(latest, cleanVersion) {
		return nil, true
	}
	// A newer version is cached, but the release URL isn't;
	// re-fetch so the caller gets a complete answer.
	return nil, false
}

func saveCache(version, cacheDir string) {
	data, err := json.Marshal(cachedCheck{
		CheckedAt: time.Now(),
		Version:   version,
	})
	if err != nil {
		return
	}
	// Best effort; a failed cache write only costs an extra
	// API call next time.
	_ = os.WriteFile(
		filepath.Join(cacheDir, cacheFileName), data, 0o644,
	)
}

func fetchLatestRelease() (*Release, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(githubAPIURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API status %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag name")
	}
	return &release, nil
}
