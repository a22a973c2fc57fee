package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/departures-cli/internal/model"
)

const (
	green = "FF00FF00"
	red   = "FFFF0000"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func newTestWriter(t *testing.T, path string) *Writer {
	t.Helper()
	opts := DefaultOptions()
	opts.Path = path
	w, err := NewWriter(opts)
	require.NoError(t, err)
	return w
}

func onTime(airline string) model.FlightRecord {
	return model.NewFlightRecord(airline, "Dubai", "Departed", "15 Mar 2024 14:30", "15 Mar 2024 14:25", "T3")
}

func delayed(airline string) model.FlightRecord {
	return model.NewFlightRecord(airline, "Doha", "Departed", "15 Mar 2024 14:30", "15 Mar 2024 15:10", "T3")
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet["Departures"]
	require.True(t, ok)
	var rows [][]string
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return rows
}

func TestAppend_FirstRunCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w := newTestWriter(t, path)

	res, err := w.Append([]model.FlightRecord{onTime("Emirates"), delayed("Qatar Airways")}, "2024-03-15 14:50:00")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 2, res.StartRow)
	assert.Equal(t, 2, res.Appended)
	assert.Equal(t, 2, res.Recolored)
	assert.NoError(t, res.RecolorErr)

	rows := readSheet(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, model.LedgerColumns(), rows[0])
	assert.Equal(t, []string{
		"Emirates", "Dubai", "Departed", "2024-03-15 14:30:00", "2024-03-15 14:25:00", "ON-TIME", "T3", "2024-03-15 14:50:00",
	}, rows[1])
	assert.Equal(t, "Qatar Airways", rows[2][0])
	assert.Equal(t, "DELAYED", rows[2][5])
	assert.Equal(t, "2024-03-15 14:50:00", rows[2][7])

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, green, entries[0].Fill)
	assert.Equal(t, red, entries[1].Fill)
}

func TestAppend_SecondRunAppendsAfterExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w := newTestWriter(t, path)

	_, err := w.Append([]model.FlightRecord{onTime("A1"), delayed("A2"), onTime("A3")}, "2024-03-15 10:00:00")
	require.NoError(t, err)

	res, err := w.Append([]model.FlightRecord{delayed("B1"), onTime("B2")}, "2024-03-15 12:00:00")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 5, res.StartRow, "1 header + 3 existing rows")
	assert.Equal(t, 5, res.Recolored)

	rows := readSheet(t, path)
	require.Len(t, rows, 6)
	assert.Equal(t, model.LedgerColumns(), rows[0], "header is not repeated")
	for i, airline := range []string{"A1", "A2", "A3", "B1", "B2"} {
		assert.Equal(t, airline, rows[i+1][0])
	}

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	wantFill := []string{green, red, green, red, green}
	wantTS := []string{"2024-03-15 10:00:00", "2024-03-15 10:00:00", "2024-03-15 10:00:00", "2024-03-15 12:00:00", "2024-03-15 12:00:00"}
	for i, e := range entries {
		assert.Equal(t, i+2, e.Row)
		assert.Equal(t, wantFill[i], e.Fill, "row %d", e.Row)
		assert.Equal(t, wantTS[i], e.Timestamp, "row %d", e.Row)
	}
}

func TestAppend_ExistingUncoloredSheetIsRecolored(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Departures": {
			model.LedgerColumns(),
			{"Old1", "Kochi", "x", "2024-01-01 10:00:00", "2024-01-01 10:30:00", "DELAYED", "T1", "2024-01-01 11:00:00"},
			{"Old2", "Kochi", "x", "2024-01-01 10:00:00", "2024-01-01 09:30:00", "ON-TIME", "T1", "2024-01-01 11:00:00"},
		},
	})
	w := newTestWriter(t, path)

	res, err := w.Append([]model.FlightRecord{onTime("New")}, "2024-03-15 12:00:00")
	require.NoError(t, err)
	assert.Equal(t, 4, res.StartRow)
	assert.Equal(t, 3, res.Recolored)

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, red, entries[0].Fill)
	assert.Equal(t, green, entries[1].Fill)
	assert.Equal(t, green, entries[2].Fill)
	assert.Equal(t, "Old1", entries[0].Record.Airline)
	assert.Equal(t, "2024-01-01 10:30:00", entries[0].Record.ActualTime)
}

func TestAppend_ExistingFileWithoutSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Other": {{"keep", "me"}},
	})
	w := newTestWriter(t, path)

	res, err := w.Append([]model.FlightRecord{delayed("X")}, "2024-03-15 12:00:00")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 2, res.StartRow)

	rows := readSheet(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, model.LedgerColumns(), rows[0])

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Contains(t, f.Sheet, "Other")
	assert.Equal(t, "keep", f.Sheet["Other"].Rows[0].Cells[0].String())
}

func TestAppend_RecolorFailureDoesNotFailAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w := newTestWriter(t, path)
	w.recolor = func() (int, error) { return 0, errors.New("disk on fire") }

	res, err := w.Append([]model.FlightRecord{onTime("A"), delayed("B")}, "2024-03-15 12:00:00")
	require.NoError(t, err)
	require.Error(t, res.RecolorErr)
	assert.Equal(t, 2, res.Appended)

	rows := readSheet(t, path)
	assert.Len(t, rows, 3)

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.Fill)
	}
}

func TestAppend_UnreadableExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	require.NoError(t, writeFile(path, "not a zip"))
	w := newTestWriter(t, path)

	_, err := w.Append([]model.FlightRecord{onTime("A")}, "2024-03-15 12:00:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger: open")
}

func TestAppend_EmptyRecordsWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w := newTestWriter(t, path)

	res, err := w.Append(nil, "2024-03-15 12:00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Appended)

	rows := readSheet(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, model.LedgerColumns(), rows[0])
}

func TestRecolor_IgnoresUnknownStatus(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Departures": {
			model.LedgerColumns(),
			{"A", "x", "x", "x", "x", "CANCELLED", "x", "x"},
			{"B", "x", "x", "x", "x", "ON-TIME", "x", "x"},
		},
	})
	w := newTestWriter(t, path)

	n, err := w.Recolor()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	assert.Empty(t, entries[0].Fill)
	assert.Equal(t, green, entries[1].Fill)
}

func TestRecolor_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w := newTestWriter(t, path)
	_, err := w.Append([]model.FlightRecord{onTime("A"), delayed("B")}, "2024-03-15 12:00:00")
	require.NoError(t, err)

	for range 2 {
		n, err := w.Recolor()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	assert.Equal(t, green, entries[0].Fill)
	assert.Equal(t, red, entries[1].Fill)
}

func TestRecolor_UsesHeaderPosition(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Departures": {
			{"Flight Status", "Airline", "Origin/Destination", "Date/Status", "SCH", "Actual Time", "Terminal", "Timestamp"},
			{"DELAYED", "A", "x", "x", "x", "x", "x", "x"},
		},
	})
	w := newTestWriter(t, path)

	n, err := w.Recolor()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].Record.Airline)
	assert.Equal(t, red, entries[0].Fill)
}

func TestRecolor_MissingSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Other": {{"a"}}})
	w := newTestWriter(t, path)

	_, err := w.Recolor()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecolor_CustomColors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Departures.xlsx")
	w, err := NewWriter(Options{Path: path, Sheet: "Departures", OnTimeColor: "c6efce", DelayedColor: "80FFC7CE"})
	require.NoError(t, err)

	_, err = w.Append([]model.FlightRecord{onTime("A"), delayed("B")}, "2024-03-15 12:00:00")
	require.NoError(t, err)

	entries, err := Read(path, "Departures")
	require.NoError(t, err)
	assert.Equal(t, "FFC6EFCE", entries[0].Fill)
	assert.Equal(t, "80FFC7CE", entries[1].Fill)
}

func TestNewWriter_Validation(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		errMsg string
	}{
		{"missing path", Options{Sheet: "s", OnTimeColor: "00FF00", DelayedColor: "FF0000"}, "path is required"},
		{"missing sheet", Options{Path: "p", OnTimeColor: "00FF00", DelayedColor: "FF0000"}, "sheet name is required"},
		{"bad on-time color", Options{Path: "p", Sheet: "s", OnTimeColor: "green", DelayedColor: "FF0000"}, "invalid color"},
		{"bad delayed color", Options{Path: "p", Sheet: "s", OnTimeColor: "00FF00", DelayedColor: "#FF0000"}, "invalid color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWriter(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
