package ledger

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/departures-cli/internal/model"
)

// Entry is one data row of the ledger.
type Entry struct {
	Row       int // 1-based sheet row
	Record    model.FlightRecord
	Timestamp string
	Fill      string // ARGB fill color of the Flight Status cell, if any
}

// Read loads every data row of the ledger sheet. Columns are matched by
// header name, so reordered sheets still read correctly.
func Read(path, sheetName string) ([]Entry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open file")
	}
	sheet, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Errorf("ledger: sheet %q not found", sheetName)
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range model.LedgerColumns() {
		if _, ok := index[col]; !ok {
			return nil, eris.Errorf("ledger: header missing column %q", col)
		}
	}

	var entries []Entry
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		get := func(col string) string {
			j := index[col]
			if j < len(cells) {
				return cells[j]
			}
			return ""
		}
		e := Entry{
			Row: i + 2,
			Record: model.FlightRecord{
				Airline:           get(model.ColumnAirline),
				OriginDestination: get(model.ColumnOriginDestination),
				DateStatus:        get(model.ColumnDateStatus),
				SCH:               get(model.ColumnSCH),
				ActualTime:        get(model.ColumnActualTime),
				FlightStatus:      model.FlightStatus(get(model.ColumnFlightStatus)),
				Terminal:          get(model.ColumnTerminal),
			},
			Timestamp: get(model.ColumnTimestamp),
		}
		if j := index[model.ColumnFlightStatus]; row != nil && j < len(row.Cells) {
			if style := row.Cells[j].GetStyle(); style.Fill.PatternType == solidPattern {
				e.Fill = style.Fill.FgColor
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Summary aggregates ledger entries.
type Summary struct {
	Rows    int
	OnTime  int
	Delayed int
	Runs    int // distinct capture timestamps
	First   string
	Last    string
}

// Summarize tallies entries by status and capture run.
func Summarize(entries []Entry) Summary {
	s := Summary{Rows: len(entries)}
	runs := make(map[string]struct{})
	records := make([]model.FlightRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
		if e.Timestamp == "" {
			continue
		}
		runs[e.Timestamp] = struct{}{}
		if s.First == "" || e.Timestamp < s.First {
			s.First = e.Timestamp
		}
		if e.Timestamp > s.Last {
			s.Last = e.Timestamp
		}
	}
	s.OnTime, s.Delayed = model.StatusCounts(records)
	s.Runs = len(runs)
	return s
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
