package model

import (
	"strings"
	"time"
)

// FlightStatus is the punctuality derived from a departure's SCH and actual times.
type FlightStatus string

const (
	FlightStatusOnTime  FlightStatus = "ON-TIME"
	FlightStatusDelayed FlightStatus = "DELAYED"
)

const (
	// SourceTimeLayout is the board's display format, e.g. "15 Mar 2024 14:30".
	SourceTimeLayout = "2 Jan 2006 15:04"

	// TimestampLayout is used for normalized times and capture timestamps.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Ledger column names, in sheet order.
const (
	ColumnAirline           = "Airline"
	ColumnOriginDestination = "Origin/Destination"
	ColumnDateStatus        = "Date/Status"
	ColumnSCH               = "SCH"
	ColumnActualTime        = "Actual Time"
	ColumnFlightStatus      = "Flight Status"
	ColumnTerminal          = "Terminal"
	ColumnTimestamp         = "Timestamp"
)

// RecordColumns returns the FlightRecord field names in sheet order.
func RecordColumns() []string {
	return []string{
		ColumnAirline,
		ColumnOriginDestination,
		ColumnDateStatus,
		ColumnSCH,
		ColumnActualTime,
		ColumnFlightStatus,
		ColumnTerminal,
	}
}

// LedgerColumns returns the ledger header: record fields plus Timestamp.
func LedgerColumns() []string {
	return append(RecordColumns(), ColumnTimestamp)
}

// FlightRecord is one observed departure entry. JSON keys match the ledger
// column names so the snapshot and the sheet read the same.
type FlightRecord struct {
	Airline           string       `json:"Airline" yaml:"Airline"`
	OriginDestination string       `json:"Origin/Destination" yaml:"Origin/Destination"`
	DateStatus        string       `json:"Date/Status" yaml:"Date/Status"`
	SCH               string       `json:"SCH" yaml:"SCH"`
	ActualTime        string       `json:"Actual Time" yaml:"Actual Time"`
	FlightStatus      FlightStatus `json:"Flight Status" yaml:"Flight Status"`
	Terminal          string       `json:"Terminal" yaml:"Terminal"`
}

// NewFlightRecord normalizes the raw SCH and actual times and derives the
// flight status from them.
func NewFlightRecord(airline, originDestination, dateStatus, rawSCH, rawActual, terminal string) FlightRecord {
	sch := NormalizeTime(rawSCH)
	actual := NormalizeTime(rawActual)
	return FlightRecord{
		Airline:           airline,
		OriginDestination: originDestination,
		DateStatus:        dateStatus,
		SCH:               sch,
		ActualTime:        actual,
		FlightStatus:      Classify(sch, actual),
		Terminal:          terminal,
	}
}

// Values returns the record's fields in RecordColumns order.
func (r FlightRecord) Values() []string {
	return []string{
		r.Airline,
		r.OriginDestination,
		r.DateStatus,
		r.SCH,
		r.ActualTime,
		string(r.FlightStatus),
		r.Terminal,
	}
}

// NormalizeTime rewrites a SourceTimeLayout string into TimestampLayout.
// Runs of whitespace between components are accepted. Anything that does
// not parse is returned unchanged, so normalizing an already normalized
// value is a no-op.
func NormalizeTime(raw string) string {
	t, err := time.Parse(SourceTimeLayout, strings.Join(strings.Fields(raw), " "))
	if err != nil {
		return raw
	}
	return t.Format(TimestampLayout)
}

// Classify compares the two times as strings. This is chronological only
// when both are zero-padded TimestampLayout values; an unparsed or empty
// actual time is compared as-is.
func Classify(sch, actual string) FlightStatus {
	if actual <= sch {
		return FlightStatusOnTime
	}
	return FlightStatusDelayed
}

// CaptureBatch is the output of one pipeline run.
type CaptureBatch struct {
	Timestamp string         `json:"timestamp" yaml:"timestamp"`
	Flights   []FlightRecord `json:"flights" yaml:"flights"`
}

// NewCaptureBatch stamps a copy of flights with capturedAt.
func NewCaptureBatch(capturedAt time.Time, flights []FlightRecord) CaptureBatch {
	cp := make([]FlightRecord, len(flights))
	copy(cp, flights)
	return CaptureBatch{
		Timestamp: capturedAt.Format(TimestampLayout),
		Flights:   cp,
	}
}

// StatusCounts tallies ON-TIME and DELAYED records.
func StatusCounts(flights []FlightRecord) (onTime, delayed int) {
	for _, f := range flights {
		switch f.FlightStatus {
		case FlightStatusOnTime:
			onTime++
		case FlightStatusDelayed:
			delayed++
		}
	}
	return onTime, delayed
}
