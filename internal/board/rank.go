package board

import (
	"cmp"
	"slices"
	"time"

	"inkboard.dev/board/internal/models"
)

const (
	minutesPerDay = 24 * 60
	// unparsedOffset sorts departures with an unreadable time last.
	unparsedOffset = 9999
)

// offsetFrom returns how many minutes after ref the departure leaves,
// wrapping at midnight: at 23:50 a 00:05 departure is 15 minutes away.
func offsetFrom(dep models.Departure, ref time.Time) int {
	minutes, err := models.ParseClock(dep.Time)
	if err != nil {
		return unparsedOffset
	}
	refMinutes := ref.Hour()*60 + ref.Minute()
	return ((minutes-refMinutes)%minutesPerDay + minutesPerDay) % minutesPerDay
}

// Rank orders departures by time until departure from ref and keeps the
// first limit. Ties keep their input order. The input is not modified.
func Rank(deps []models.Departure, ref time.Time, limit int) []models.Departure {
	ranked := slices.Clone(deps)
	slices.SortStableFunc(ranked, func(a, b models.Departure) int {
		return cmp.Compare(offsetFrom(a, ref), offsetFrom(b, ref))
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
