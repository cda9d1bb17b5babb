// =============================================================================
// Dividend Feed - XLSX Feed Reader
// =============================================================================
//
// This module reads a dividend feed that was downloaded as an .xlsx workbook
// instead of a CSV export. The sheet is turned into the same raw rows the
// delimited-text parser produces, so the rest of the pipeline cannot tell the
// two apart:
//   - Row 1 is the header row, as in the published export
//   - Cells are returned as formatted text, never as numbers
//   - Date-styled cells are written as ISO dates (2006-01-02), whatever
//     format the workbook displays them in
//   - Carriage returns inside cells are dropped, like the CSV parser does
//
// SHEET SELECTION:
//   The first sheet is read unless a sheet name is configured.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/minaironcapital/dividendos/internal/csvparser"
)

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadRows opens an .xlsx workbook and returns the rows of one sheet.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - sheet: The sheet to read. Empty means the first sheet.
//
// RETURNS:
//   - The rows in sheet order. Trailing empty cells are not included.
//   - An error if the file cannot be opened or the sheet does not exist.
func ReadRows(path, sheet string) ([]csvparser.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	dates := newDateCells(f, sheetName)

	rows := make([]csvparser.Row, 0, len(raw))
	for r, cells := range raw {
		row := make(csvparser.Row, len(cells))
		for c, cell := range cells {
			if cell != "" {
				if iso, ok := dates.isoDate(c+1, r+1); ok {
					cell = iso
				}
			}
			row[c] = strings.ReplaceAll(cell, "\r", "")
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// =============================================================================
// DATE CELLS
// =============================================================================

// builtInDateFormats are the built-in number formats that display a date.
// Time-only formats (18-21, 45-47) are left alone.
var builtInDateFormats = map[int]bool{
	14: true, // m/d/yy (shown as mm-dd-yy)
	15: true, // d-mmm-yy
	16: true, // d-mmm
	17: true, // mmm-yy
	22: true, // m/d/yy h:mm
}

// dateCells resolves date-styled cells of one sheet to ISO dates.
type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool

	// isDate caches the verdict per style index.
	isDate map[int]bool
}

func newDateCells(f *excelize.File, sheet string) *dateCells {
	d := &dateCells{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// isoDate returns the cell at (col, row), both 1-based, as 2006-01-02 when
// it holds a serial date in a date number format.
func (d *dateCells) isoDate(col, row int) (string, bool) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}

	styleID, err := d.f.GetCellStyle(d.sheet, name)
	if err != nil || !d.styleIsDate(styleID) {
		return "", false
	}

	raw, err := d.f.GetCellValue(d.sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		// Text typed into a date-formatted cell.
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func (d *dateCells) styleIsDate(styleID int) bool {
	if verdict, ok := d.isDate[styleID]; ok {
		return verdict
	}

	verdict := false
	if style, err := d.f.GetStyle(styleID); err == nil && style != nil {
		switch {
		case style.CustomNumFmt != nil:
			verdict = isDateLayout(*style.CustomNumFmt)
		default:
			verdict = builtInDateFormats[style.NumFmt]
		}
	}

	d.isDate[styleID] = verdict
	return verdict
}

// isDateLayout reports whether a custom number format shows a day or a year.
// Quoted literals, escaped characters and [..] sections are ignored; "m" on
// its own is ambiguous with minutes and does not count.
func isDateLayout(layout string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range strings.ToLower(layout) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == 'd' || r == 'y':
			return true
		}
	}
	return false
}

// resolveSheet returns the sheet to read.
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	if sheet == "" {
		name := f.GetSheetName(0)
		if name == "" {
			return "", fmt.Errorf("workbook has no sheets")
		}
		return name, nil
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return "", fmt.Errorf("invalid sheet name %q: %w", sheet, err)
	}
	if idx == -1 {
		return "", fmt.Errorf("sheet %q not found in workbook", sheet)
	}
	return sheet, nil
}
