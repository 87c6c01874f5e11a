package board

import (
	"time"

	"github.com/samber/lo"
	"inkboard.dev/board/internal/models"
)

// FallbackLabel tags synthetic departures.
const FallbackLabel = "fallback"

type placeholder struct {
	offset      time.Duration
	line        string
	destination string
}

var placeholders = []placeholder{
	{7 * time.Minute, "F", "Ryparken St."},
	{12 * time.Minute, "B", "Farum St."},
	{18 * time.Minute, "F", "København Syd St."},
	{25 * time.Minute, "B", "Høje Taastrup St."},
	{32 * time.Minute, "E", "Køge St."},
	{37 * time.Minute, "A", "Ballerup St."},
	{42 * time.Minute, "C", "Lyngby St."},
	{48 * time.Minute, "H", "Hillerød St."},
}

// Fallback returns the synthetic board shown when no source produced a
// departure, so the display always has something to render.
func Fallback(now time.Time) []models.Departure {
	return lo.Map(placeholders, func(p placeholder, _ int) models.Departure {
		return models.Departure{
			Time:        now.Add(p.offset).Format("15:04"),
			Destination: p.destination,
			Line:        p.line,
			SourceLabel: FallbackLabel,
		}
	})
}
