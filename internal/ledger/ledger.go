// Package ledger appends capture batches to a spreadsheet and color-codes
// the Flight Status column.
package ledger

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/departures-cli/internal/model"
)

const solidPattern = "solid"

// Options configures the ledger file.
type Options struct {
	Path         string `yaml:"path" mapstructure:"path"`
	Sheet        string `yaml:"sheet" mapstructure:"sheet"`
	OnTimeColor  string `yaml:"on_time_color" mapstructure:"on_time_color"`
	DelayedColor string `yaml:"delayed_color" mapstructure:"delayed_color"`
}

// DefaultOptions returns the Departures.xlsx layout.
func DefaultOptions() Options {
	return Options{
		Path:         "Departures.xlsx",
		Sheet:        "Departures",
		OnTimeColor:  "00FF00",
		DelayedColor: "FF0000",
	}
}

// AppendResult describes one Append call.
type AppendResult struct {
	Created    bool  // the file was created by this call
	StartRow   int   // 1-based sheet row of the first appended record
	Appended   int
	Recolored  int   // status cells filled by the recolor pass
	RecolorErr error // recolor failure; the append itself still stands
}

// Writer appends flight records to the ledger.
type Writer struct {
	opts        Options
	onTimeARGB  string
	delayedARGB string

	recolor func() (int, error)
}

var hexColor = regexp.MustCompile(`^(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// NewWriter validates opts and returns a Writer.
func NewWriter(opts Options) (*Writer, error) {
	if opts.Path == "" {
		return nil, eris.New("ledger: path is required")
	}
	if opts.Sheet == "" {
		return nil, eris.New("ledger: sheet name is required")
	}
	onTime, err := argb(opts.OnTimeColor)
	if err != nil {
		return nil, err
	}
	delayed, err := argb(opts.DelayedColor)
	if err != nil {
		return nil, err
	}
	w := &Writer{opts: opts, onTimeARGB: onTime, delayedARGB: delayed}
	w.recolor = w.Recolor
	return w, nil
}

// argb turns RRGGBB into the opaque AARRGGBB form xlsx fills use.
func argb(color string) (string, error) {
	if !hexColor.MatchString(color) {
		return "", eris.Errorf("ledger: invalid color %q", color)
	}
	color = strings.ToUpper(color)
	if len(color) == 6 {
		color = "FF" + color
	}
	return color, nil
}

// Append writes one row per record, each stamped with timestamp. A missing
// file is created with a header row; otherwise rows go directly after the
// sheet's last row. The Flight Status column of the whole sheet is then
// recolored; a recolor failure is logged and reported in the result but
// does not fail the append.
func (w *Writer) Append(records []model.FlightRecord, timestamp string) (*AppendResult, error) {
	f, created, err := w.open()
	if err != nil {
		return nil, err
	}

	sheet, ok := f.Sheet[w.opts.Sheet]
	if !ok {
		sheet, err = f.AddSheet(w.opts.Sheet)
		if err != nil {
			return nil, eris.Wrapf(err, "ledger: add sheet %q", w.opts.Sheet)
		}
	}
	if len(sheet.Rows) == 0 {
		writeRow(sheet, model.LedgerColumns())
	}

	res := &AppendResult{
		Created:  created,
		StartRow: len(sheet.Rows) + 1,
	}
	for _, rec := range records {
		writeRow(sheet, append(rec.Values(), timestamp))
		res.Appended++
	}

	if err := f.Save(w.opts.Path); err != nil {
		return nil, eris.Wrapf(err, "ledger: save %s", w.opts.Path)
	}

	if created {
		zap.L().Info("ledger: created file", zap.String("path", w.opts.Path), zap.Int("rows", res.Appended))
	} else {
		zap.L().Info("ledger: appended rows",
			zap.String("path", w.opts.Path),
			zap.Int("start_row", res.StartRow),
			zap.Int("rows", res.Appended),
		)
	}

	res.Recolored, res.RecolorErr = w.recolor()
	if res.RecolorErr != nil {
		zap.L().Error("ledger: color coding failed", zap.String("path", w.opts.Path), zap.Error(res.RecolorErr))
	} else {
		zap.L().Info("ledger: color coding applied", zap.String("path", w.opts.Path), zap.Int("cells", res.Recolored))
	}

	return res, nil
}

func (w *Writer) open() (*xlsx.File, bool, error) {
	_, err := os.Stat(w.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return xlsx.NewFile(), true, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "ledger: stat %s", w.opts.Path)
	}
	f, err := xlsx.OpenFile(w.opts.Path)
	if err != nil {
		return nil, false, eris.Wrapf(err, "ledger: open %s", w.opts.Path)
	}
	return f, false, nil
}

func writeRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// Recolor reopens the ledger and fills the Flight Status cell of every data
// row: OnTimeColor for ON-TIME, DelayedColor for DELAYED. Other values are
// left alone. It returns the number of cells filled.
func (w *Writer) Recolor() (int, error) {
	f, err := xlsx.OpenFile(w.opts.Path)
	if err != nil {
		return 0, eris.Wrapf(err, "ledger: reopen %s", w.opts.Path)
	}
	sheet, ok := f.Sheet[w.opts.Sheet]
	if !ok {
		return 0, eris.Errorf("ledger: sheet %q not found", w.opts.Sheet)
	}

	col := statusColumn(sheet)
	filled := 0
	for i, row := range sheet.Rows {
		if i == 0 || row == nil || col >= len(row.Cells) {
			continue
		}
		cell := row.Cells[col]
		var color string
		switch model.FlightStatus(cell.String()) {
		case model.FlightStatusOnTime:
			color = w.onTimeARGB
		case model.FlightStatusDelayed:
			color = w.delayedARGB
		default:
			continue
		}
		style := *cell.GetStyle()
		style.Fill = *xlsx.NewFill(solidPattern, color, color)
		style.ApplyFill = true
		cell.SetStyle(&style)
		filled++
	}

	if err := f.Save(w.opts.Path); err != nil {
		return 0, eris.Wrapf(err, "ledger: save %s", w.opts.Path)
	}
	return filled, nil
}

// statusColumn finds Flight Status in the header row, falling back to its
// position in LedgerColumns.
func statusColumn(sheet *xlsx.Sheet) int {
	if len(sheet.Rows) > 0 && sheet.Rows[0] != nil {
		for i, cell := range sheet.Rows[0].Cells {
			if strings.TrimSpace(cell.String()) == model.ColumnFlightStatus {
				return i
			}
		}
	}
	for i, name := range model.LedgerColumns() {
		if name == model.ColumnFlightStatus {
			return i
		}
	}
	return 0
}
