package board

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"inkboard.dev/board/internal/appconf"
)

const stationBoardPath = "/bin/stboard.exe/mn"

// Source is one station board on the journey planner.
type Source struct {
	// Label tags every departure taken from this board.
	Label string
	// Input is the stop in the planner's "<name>#<id>" form.
	Input string
	// Direction optionally restricts the board to departures towards a stop.
	Direction   string
	MaxJourneys int
}

// SourcesFromConfig converts configured sources, defaulting MaxJourneys to 7.
func SourcesFromConfig(cfgs []appconf.SourceConfig) []Source {
	sources := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		maxJourneys := c.MaxJourneys
		if maxJourneys == 0 {
			maxJourneys = 7
		}
		sources = append(sources, Source{
			Label:       c.Label,
			Input:       c.Input,
			Direction:   c.Direction,
			MaxJourneys: maxJourneys,
		})
	}
	return sources
}

// URL builds the station board request for the reference time ref. Date and
// time both come from ref, so a reference past midnight asks for the next
// day's board.
func (s Source) URL(baseURL string, ref time.Time) string {
	date := ref.Format("02.01.2006")

	q := url.Values{}
	q.Set("L", "vs_rp4.vs_dsb")
	q.Set("ml", "m")
	q.Set("protocol", "https:")
	q.Set("boardType", "dep")
	q.Set("input", latin1(s.Input))
	if s.Direction != "" {
		q.Set("dirInput", latin1(s.Direction))
	}
	q.Set("productsFilter", "111111111111")
	q.Set("maxStops", "0")
	q.Set("maxJourneys", strconv.Itoa(s.MaxJourneys))
	q.Set("selectDate", "period")
	q.Set("dateBegin", date)
	q.Set("dateEnd", date)
	q.Set("time", ref.Format("15:04"))
	q.Set("currentSqResultsContentType", "STATIONBOARD")
	q.Set("start", "yes")

	return strings.TrimRight(baseURL, "/") + stationBoardPath + "?" + q.Encode()
}

// latin1 re-encodes s as ISO-8859-1, which the planner expects in query
// strings. Stop names outside Latin-1 are sent as UTF-8.
func latin1(s string) string {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return encoded
}
