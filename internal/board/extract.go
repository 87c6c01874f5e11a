package board

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"inkboard.dev/board/internal/models"
)

// rowSelector matches departure rows. Row order on the page is not
// chronological, so rows are found by marker class rather than position.
const rowSelector = "tr.sqToggleDetails"

// Extraction is the outcome of reading one board page.
type Extraction struct {
	Departures []models.Departure
	Rows       int
	Discarded  map[DiscardReason]int
}

func (e *Extraction) discard(reason DiscardReason) {
	if e.Discarded == nil {
		e.Discarded = make(map[DiscardReason]int)
	}
	e.Discarded[reason]++
}

// Extract pulls departures out of a parsed board page and tags them with
// label. Unusable rows are counted, never fatal.
func Extract(doc *goquery.Document, label string, shapes []RowShape) Extraction {
	var out Extraction

	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		out.Rows++

		dep, reason := extractRow(row, shapes)
		if reason != "" {
			out.discard(reason)
			return
		}
		dep.SourceLabel = label
		out.Departures = append(out.Departures, dep)
	})

	return out
}

func extractRow(row *goquery.Selection, shapes []RowShape) (dep models.Departure, reason DiscardReason) {
	defer func() {
		if r := recover(); r != nil {
			dep, reason = models.Departure{}, DiscardPanic
		}
	}()

	cells := cellTexts(row)
	if len(cells) < minRowCells {
		return models.Departure{}, DiscardShortRow
	}

	shape, ok := shapeFor(shapes, len(cells))
	if !ok {
		return models.Departure{}, DiscardNoShape
	}
	return shape.Extract(cells)
}

// cellTexts returns the text of each direct td of row with whitespace collapsed.
func cellTexts(row *goquery.Selection) []string {
	tds := row.ChildrenFiltered("td")
	cells := make([]string, 0, tds.Length())
	tds.Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.Join(strings.Fields(td.Text()), " "))
	})
	return cells
}

// ExtractHTML parses markup and extracts departures from it.
func ExtractHTML(html string, label string, shapes []RowShape) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse board markup: %w", err)
	}
	return Extract(doc, label, shapes), nil
}
