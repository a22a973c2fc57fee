// Package extract turns a departures board page into flight records.
package extract

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/departures-cli/internal/model"
)

// Attribute positions within Layout.Offsets.
const (
	attrAirline = iota
	attrOriginDestination
	attrDateStatus
	attrSCH
	attrActual
	attrTerminal
	attrCount
)

// Layout describes where departure rows and their fields live in the page.
type Layout struct {
	RowSelector   string `yaml:"row_selector" mapstructure:"row_selector"`
	FieldSelector string `yaml:"field_selector" mapstructure:"field_selector"`
	// Offsets index the per-row field sequence for Airline,
	// Origin/Destination, Date/Status, SCH, Actual Time, Terminal. They are
	// ignored for rows where every attribute is preceded by its label.
	Offsets []int `yaml:"offsets" mapstructure:"offsets"`
}

// DefaultLayout matches the CIAL departures board.
func DefaultLayout() Layout {
	return Layout{
		RowSelector:   "div.row.chart-bg",
		FieldSelector: "span",
		Offsets:       []int{1, 3, 5, 7, 9, 11},
	}
}

// Result is the outcome of extracting one page.
type Result struct {
	Flights []model.FlightRecord
	Rows    int // departure row blocks matched
	Skipped int // rows with no fields or too few fields
}

// Extractor maps departure rows to FlightRecords.
type Extractor struct {
	layout    Layout
	minFields int
}

// New validates the layout and returns an Extractor.
func New(layout Layout) (*Extractor, error) {
	if strings.TrimSpace(layout.RowSelector) == "" {
		return nil, eris.New("extract: row selector is required")
	}
	if strings.TrimSpace(layout.FieldSelector) == "" {
		return nil, eris.New("extract: field selector is required")
	}
	if len(layout.Offsets) != attrCount {
		return nil, eris.Errorf("extract: expected %d offsets, got %d", attrCount, len(layout.Offsets))
	}
	maxOffset := 0
	for _, o := range layout.Offsets {
		if o < 0 {
			return nil, eris.Errorf("extract: negative offset %d", o)
		}
		maxOffset = max(maxOffset, o)
	}
	return &Extractor{layout: layout, minFields: maxOffset + 1}, nil
}

// Extract parses body and returns the flights in document order. The
// contentType header selects the charset; UTF-8 is assumed when absent or
// unknown.
func (e *Extractor) Extract(body []byte, contentType string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(decode(body, contentType))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	res := &Result{Flights: []model.FlightRecord{}}
	doc.Find(e.layout.RowSelector).Each(func(i int, row *goquery.Selection) {
		res.Rows++
		fields := row.Find(e.layout.FieldSelector).Map(func(_ int, s *goquery.Selection) string {
			return cleanText(s.Text())
		})

		rec, ok := e.Record(fields)
		if !ok {
			res.Skipped++
			zap.L().Debug("extract: skipped departure row",
				zap.Int("row", i),
				zap.Int("fields", len(fields)),
			)
			return
		}
		res.Flights = append(res.Flights, rec)
	})

	return res, nil
}

// Record maps one row's field sequence to a FlightRecord. Fields are picked
// by their preceding label when every attribute has one, otherwise by the
// layout offsets. It reports false for rows with no fields or too few.
func (e *Extractor) Record(fields []string) (model.FlightRecord, bool) {
	if len(fields) == 0 {
		return model.FlightRecord{}, false
	}

	vals, ok := byLabel(fields)
	if ok {
		zap.L().Debug("extract: mapped row by labels, offsets not used", zap.Int("fields", len(fields)))
	} else {
		if len(fields) < e.minFields {
			return model.FlightRecord{}, false
		}
		for attr, off := range e.layout.Offsets {
			vals[attr] = fields[off]
		}
	}

	return model.NewFlightRecord(
		vals[attrAirline],
		vals[attrOriginDestination],
		vals[attrDateStatus],
		vals[attrSCH],
		vals[attrActual],
		vals[attrTerminal],
	), true
}

var labels = map[string]int{
	"airline":            attrAirline,
	"origin/destination": attrOriginDestination,
	"destination":        attrOriginDestination,
	"date/status":        attrDateStatus,
	"sch":                attrSCH,
	"actual":             attrActual,
	"actual time":        attrActual,
	"terminal":           attrTerminal,
}

// byLabel looks for "label, value" pairs. Every attribute must be labeled.
func byLabel(fields []string) ([attrCount]string, bool) {
	var vals [attrCount]string
	var seen [attrCount]bool
	found := 0
	for i := 0; i+1 < len(fields); i++ {
		key := strings.ToLower(strings.TrimSuffix(fields[i], ":"))
		attr, ok := labels[strings.TrimSpace(key)]
		if !ok || seen[attr] {
			continue
		}
		vals[attr] = fields[i+1]
		seen[attr] = true
		found++
		i++
	}
	return vals, found == attrCount
}

// cleanText folds compatibility characters (non-breaking spaces, full-width
// digits) and trims surrounding whitespace.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// decode wraps body in a UTF-8 transcoder when contentType names another
// charset.
func decode(body []byte, contentType string) io.Reader {
	r := bytes.NewReader(body)
	if contentType == "" {
		return r
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	cs := strings.ToLower(params["charset"])
	if cs == "" || cs == "utf-8" || cs == "utf8" {
		return r
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		zap.L().Debug("extract: unknown charset, assuming utf-8", zap.String("charset", cs))
		return r
	}
	return enc.NewDecoder().Reader(r)
}
