package board

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	"inkboard.dev/board/internal/models"
)

// DiscardReason explains why a board row produced no departure.
type DiscardReason string

const (
	DiscardShortRow      DiscardReason = "short_row"
	DiscardNoShape       DiscardReason = "no_shape"
	DiscardNoTime        DiscardReason = "no_time"
	DiscardNoLine        DiscardReason = "no_line"
	DiscardNoDestination DiscardReason = "no_destination"
	DiscardBlocklisted   DiscardReason = "blocklisted_destination"
	DiscardPanic         DiscardReason = "panic"
)

// minRowCells is the fewest cells a departure row can have.
const minRowCells = 4

// RowShape extracts a departure from the cell texts of one board row. Each
// upstream table layout gets its own shape, so a format change on one board
// stays contained in one implementation.
type RowShape interface {
	Name() string
	// Accepts reports whether a row with n cells has this shape.
	Accepts(n int) bool
	// Extract returns the departure, or the reason the row is unusable.
	Extract(cells []string) (models.Departure, DiscardReason)
}

// cellLayout is a RowShape described by cell positions.
type cellLayout struct {
	name        string
	minCells    int
	maxCells    int // 0 means unbounded
	time        int
	prognosis   int
	line        int
	destination int
}

var (
	// TrainBoard is the rail board layout: time, prognosis, product, two
	// track/info cells, terminal.
	TrainBoard RowShape = cellLayout{name: "train", minCells: 6, time: 0, prognosis: 1, line: 2, destination: 5}
	// BusBoard is the bus board layout: time, prognosis, product, terminal.
	BusBoard RowShape = cellLayout{name: "bus", minCells: 4, maxCells: 5, time: 0, prognosis: 1, line: 2, destination: 3}

	// DefaultShapes are tried in order; the first that accepts a row wins.
	DefaultShapes = []RowShape{TrainBoard, BusBoard}
)

func (l cellLayout) Name() string { return l.name }

func (l cellLayout) Accepts(n int) bool {
	return n >= l.minCells && (l.maxCells == 0 || n <= l.maxCells)
}

func (l cellLayout) Extract(cells []string) (models.Departure, DiscardReason) {
	scheduled, ok := findClock(cells[l.time])
	if !ok {
		return models.Departure{}, DiscardNoTime
	}

	dep := models.Departure{Time: scheduled}
	if prognosis, ok := findClock(cells[l.prognosis]); ok {
		dep.Time = prognosis
		dep.IsRealtime = true
	}

	line, ok := parseLine(cells[l.line])
	if !ok {
		return models.Departure{}, DiscardNoLine
	}
	dep.Line = line

	destination := parseDestination(cells[l.destination])
	if destination == "" {
		return models.Departure{}, DiscardNoDestination
	}
	if lo.Contains(destinationBlocklist, destination) {
		return models.Departure{}, DiscardBlocklisted
	}
	dep.Destination = destination

	return dep, ""
}

var (
	clockSubstring = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	busLine        = regexp.MustCompile(`Bus\s+(\d+[A-Z]?)`)
	trainLine      = regexp.MustCompile(`^([A-Z]{1,2}x?)(?:\s|$)`)
)

// destinationBlocklist holds header labels that leak into terminal cells.
var destinationBlocklist = []string{"Unknown", "Kl", "Afg"}

// findClock returns the first valid clock time in s as "HH:MM". It tolerates
// surrounding text such as "ca. 08:19".
func findClock(s string) (string, bool) {
	for _, m := range clockSubstring.FindAllString(s, -1) {
		if minutes, err := models.ParseClock(m); err == nil {
			return models.FormatClock(minutes), true
		}
	}
	return "", false
}

// parseLine recognizes "Bus 10" style products first, then train letters
// such as "B" or "Bx".
func parseLine(s string) (string, bool) {
	if m := busLine.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := trainLine.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// parseDestination keeps the terminal name before the first "-".
func parseDestination(s string) string {
	name, _, _ := strings.Cut(s, "-")
	return strings.TrimSpace(name)
}

// shapeFor picks the first shape accepting n cells.
func shapeFor(shapes []RowShape, n int) (RowShape, bool) {
	return lo.Find(shapes, func(s RowShape) bool { return s.Accepts(n) })
}
