// Package sampler observes the foreground application and system
// idle time. One production implementation shells out to
// configurable probe commands; tests use a scripted fake.
package sampler

import (
	"context"
	"time"
)

// IdleApp is the sentinel application name for idle samples.
const IdleApp = "Idle"

// SessionKey is the identity tuple used to decide whether two
// samples belong to the same session. Window title is excluded:
// title changes never start a new session.
type SessionKey struct {
	App  string
	PID  int
	Idle bool
}

// Sample is one instantaneous observation of foreground
// application and idle state. Samples are ephemeral; only the
// sessions derived from them are stored.
type Sample struct {
	Time    time.Time
	App     string
	PID     int
	Title   string
	ExePath string
	Idle    bool
}

// Key returns the sample's session identity.
func (s Sample) Key() SessionKey {
	return SessionKey{App: s.App, PID: s.PID, Idle: s.Idle}
}

// Normalize collapses idle samples to the sentinel identity:
// app forced to IdleApp, pid to 0, title and exe path cleared.
func (s Sample) Normalize() Sample {
	if !s.Idle {
		return s
	}
	s.App = IdleApp
	s.PID = 0
	s.Title = ""
	s.ExePath = ""
	return s
}

// Sampler yields foreground-window observations. Implementations
// must not block longer than the polling interval under normal
// conditions.
type Sampler interface {
	// Sample returns the current foreground observation. The
	// returned sample is already normalized when idle.
	Sample(ctx context.Context) (Sample, error)

	// IdleSeconds returns the system idle duration in seconds.
	IdleSeconds(ctx context.Context) (int, error)
}
