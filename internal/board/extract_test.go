package board

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inkboard.dev/board/internal/models"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(data)
}

func TestExtract_TrainBoard(t *testing.T) {
	got, err := ExtractHTML(readFixture(t, "train_board.html"), "Trains", DefaultShapes)
	require.NoError(t, err)

	assert.Equal(t, 7, got.Rows)
	assert.Equal(t, []models.Departure{
		{Time: "08:19", Destination: "Farum St.", Line: "B", IsRealtime: true, SourceLabel: "Trains"},
		{Time: "08:09", Destination: "Ballerup St.", Line: "Bx", SourceLabel: "Trains"},
	}, got.Departures)
	assert.Equal(t, map[DiscardReason]int{
		DiscardBlocklisted:   1,
		DiscardNoTime:        1,
		DiscardNoLine:        1,
		DiscardNoDestination: 1,
		DiscardShortRow:      1,
	}, got.Discarded)
}

func TestExtract_BusBoard(t *testing.T) {
	got, err := ExtractHTML(readFixture(t, "bus_board.html"), "Buses", DefaultShapes)
	require.NoError(t, err)

	assert.Equal(t, 4, got.Rows)
	assert.Equal(t, []models.Departure{
		{Time: "08:12", Destination: "Ålholm Plads", Line: "10", SourceLabel: "Buses"},
		{Time: "08:07", Destination: "Nørrebro St. (Nørrebrogade)", Line: "18", IsRealtime: true, SourceLabel: "Buses"},
		{Time: "08:40", Destination: "Husum Torv", Line: "5C", SourceLabel: "Buses"},
	}, got.Departures)
	assert.Equal(t, map[DiscardReason]int{DiscardBlocklisted: 1}, got.Discarded)
}

func TestExtract_NoRows(t *testing.T) {
	got, err := ExtractHTML("<html><body><p>Service unavailable</p></body></html>", "Trains", DefaultShapes)
	require.NoError(t, err)

	assert.Zero(t, got.Rows)
	assert.Empty(t, got.Departures)
	assert.Nil(t, got.Discarded)
}

func TestExtract_UnknownShape(t *testing.T) {
	html := `<table><tr class="sqToggleDetails"><td>08:00</td><td></td><td>Bus 1</td><td>A</td><td>B</td></tr></table>`

	got, err := ExtractHTML(html, "Trains", []RowShape{TrainBoard})
	require.NoError(t, err)

	assert.Empty(t, got.Departures)
	assert.Equal(t, map[DiscardReason]int{DiscardNoShape: 1}, got.Discarded)
}

type panickingShape struct{}

func (panickingShape) Name() string       { return "panics" }
func (panickingShape) Accepts(n int) bool { return true }
func (panickingShape) Extract(cells []string) (models.Departure, DiscardReason) {
	_ = cells[42]
	return models.Departure{}, ""
}

func TestExtract_RowPanicIsContained(t *testing.T) {
	html := `<table>
		<tr class="sqToggleDetails"><td>08:00</td><td></td><td>Bus 1</td><td>Valby St.</td></tr>
		<tr class="sqToggleDetails"><td>08:05</td><td></td><td>Bus 1</td><td>Valby St.</td></tr>
	</table>`

	var got Extraction
	require.NotPanics(t, func() {
		var err error
		got, err = ExtractHTML(html, "Buses", []RowShape{panickingShape{}})
		require.NoError(t, err)
	})

	assert.Equal(t, 2, got.Rows)
	assert.Empty(t, got.Departures)
	assert.Equal(t, map[DiscardReason]int{DiscardPanic: 2}, got.Discarded)
}

func TestExtract_EveryTimeIsWellFormed(t *testing.T) {
	for _, fixture := range []string{"train_board.html", "bus_board.html"} {
		got, err := ExtractHTML(readFixture(t, fixture), "x", DefaultShapes)
		require.NoError(t, err)

		for _, dep := range got.Departures {
			assert.Regexp(t, `^\d{2}:\d{2}$`, dep.Time)
			assert.NotEmpty(t, dep.Line)
			assert.NotContains(t, destinationBlocklist, dep.Destination)
			assert.NotEmpty(t, dep.Destination)
		}
	}
}
