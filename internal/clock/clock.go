// Package clock abstracts "now" so board generation can be reproduced for a
// fixed instant, both in tests and when replaying a run from the command line.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// FakeTimeEnvVar names the variable the CLI consults for a pinned instant.
const FakeTimeEnvVar = "INKBOARD_FAKE_TIME"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock is a settable clock for tests. Safe for concurrent use.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set pins the clock to t.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// EnvironmentClock reads a pinned instant from an environment variable, then
// from a file, and falls back to system time when neither yields a valid value.
// Sources are re-read on every call.
type EnvironmentClock struct {
	envVar   string
	filePath string
	location *time.Location
	logger   *slog.Logger
}

// NewEnvironmentClock builds an EnvironmentClock. Either source may be empty.
// location is used for inputs without an explicit offset; with a nil location
// only RFC3339 inputs are accepted.
func NewEnvironmentClock(envVar, filePath string, location *time.Location) *EnvironmentClock {
	return &EnvironmentClock{
		envVar:   envVar,
		filePath: filePath,
		location: location,
		logger:   slog.Default().With(slog.String("component", "clock")),
	}
}

func (e *EnvironmentClock) Now() time.Time {
	if t, err := e.fromEnv(); err == nil {
		return t
	}
	if t, err := e.fromFile(); err == nil {
		return t
	}
	if e.envVar != "" || e.filePath != "" {
		e.logger.Debug("no pinned time available, using system time",
			slog.String("env_var", e.envVar), slog.String("file", e.filePath))
	}
	return time.Now()
}

func (e *EnvironmentClock) fromEnv() (time.Time, error) {
	if e.envVar == "" {
		return time.Time{}, errors.New("no environment variable configured")
	}
	raw := os.Getenv(e.envVar)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is empty", e.envVar)
	}
	return e.parse(raw)
}

func (e *EnvironmentClock) fromFile() (time.Time, error) {
	if e.filePath == "" {
		return time.Time{}, errors.New("no file configured")
	}
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return time.Time{}, err
	}
	return e.parse(string(data))
}

// localLayouts are accepted when a location is configured.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func (e *EnvironmentClock) parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if e.location == nil {
		return time.Time{}, fmt.Errorf("time %q has no offset and no location is configured", s)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, e.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC3339, YYYY-MM-DD HH:MM[:SS] or YYYY-MM-DD", s)
}
