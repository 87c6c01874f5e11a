package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Departure is one upcoming departure as shown on the display.
type Departure struct {
	Time        string `json:"time"`
	Destination string `json:"destination"`
	Line        string `json:"line"`
	IsRealtime  bool   `json:"is_realtime"`
	SourceLabel string `json:"source_label"`
}

// Board is the artifact written on every run.
type Board struct {
	Updated    time.Time   `json:"updated"`
	Station    string      `json:"station"`
	Departures []Departure `json:"departures"`
	Fallback   bool        `json:"fallback"`
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock converts "H:MM" or "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM", wrapping at 24h.
func FormatClock(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
