// =============================================================================
// Dividend Feed - Feed Diagnostics
// =============================================================================
//
// This module inspects a parsed feed and reports the structural damage the
// pipeline absorbed on the way. It never rejects anything: every finding is a
// warning, and the records are built the same way whether or not issues were
// found.
//
// CHECKS:
//   - Header cells that match no alias, or repeat a field claimed earlier
//   - Canonical fields with no column in the header
//   - Data rows wider or narrower than the header
//   - Ex-dates no strategy could parse, which end up as verbatim bucket keys
//
// ERROR HANDLING:
//   - Issues are collected, not returned as errors
//   - Each issue carries the feed row (1-based, the header is row 1), the
//     column and the offending value where one applies
//
// =============================================================================

package validation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/headers"
	"github.com/minaironcapital/dividendos/internal/timeline"
	"github.com/minaironcapital/dividendos/internal/types"
)

// SeverityWarning is the only severity diagnostics produce.
const SeverityWarning = "warning"

// Issue codes.
const (
	CodeUnknownColumn = "unknown_column"
	CodeMissingColumn = "missing_column"
	CodeRowWidth      = "row_width"
	CodeUnparsedDate  = "unparsed_date"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Issue is a single non-fatal finding.
type Issue struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`

	// Row is the 1-based feed row. Zero for header-wide issues.
	Row    int    `json:"row,omitempty"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
}

// String formats the issue for summary logs.
func (i Issue) String() string {
	if i.Row > 0 {
		return fmt.Sprintf("[%s] row %d: %s", strings.ToUpper(i.Severity), i.Row, i.Message)
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(i.Severity), i.Message)
}

// Report collects the issues of one feed.
type Report struct {
	Issues []Issue `json:"issues"`

	// HeaderColumns is the width of the header row.
	HeaderColumns int `json:"header_columns"`

	// DataRows counts the rows after the header, blank ones included.
	DataRows int `json:"data_rows"`

	// BlankRows counts the data rows dropped as blank.
	BlankRows int `json:"blank_rows"`
}

// WarningCount returns the number of warnings.
func (r *Report) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// HasIssues reports whether anything was found.
func (r *Report) HasIssues() bool {
	return len(r.Issues) > 0
}

// LogTo writes every issue at warn level.
func (r *Report) LogTo(log *slog.Logger) {
	for _, issue := range r.Issues {
		log.Warn(issue.Message,
			"code", issue.Code,
			"row", issue.Row,
			"column", issue.Column,
			"value", issue.Value,
		)
	}
}

func (r *Report) add(code, message string, row int, column, value string) {
	r.Issues = append(r.Issues, Issue{
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
		Row:      row,
		Column:   column,
		Value:    value,
	})
}

// =============================================================================
// INSPECTION
// =============================================================================

// Inspect runs every check over a parsed feed.
//
// PARAMETERS:
//   - table: The alias table used to canonicalize the header.
//   - rows: All parsed rows, header first.
//   - bucketer: The bucketer deciding which ex-dates parse.
//
// RETURNS:
//   - The report. Never nil; an empty feed yields an empty report.
func Inspect(table *headers.AliasTable, rows []csvparser.Row, bucketer *timeline.Bucketer) *Report {
	report := &Report{Issues: []Issue{}}
	if len(rows) == 0 {
		return report
	}

	header := rows[0]
	idx := headers.Canonicalize(table, header)

	report.HeaderColumns = len(header)
	report.DataRows = len(rows) - 1

	checkHeader(report, table, header, idx)

	exDatePos, hasExDate := idx.Position(types.FieldExDate)

	for i, row := range rows[1:] {
		line := i + 2

		if row.IsEmpty() {
			report.BlankRows++
			continue
		}

		if len(row) != len(header) {
			report.add(CodeRowWidth,
				fmt.Sprintf("row has %d cells, header has %d", len(row), len(header)),
				line, "", "")
		}

		if !hasExDate {
			continue
		}
		exDate := strings.TrimSpace(row.Cell(exDatePos))
		if exDate == "" {
			continue
		}
		if _, ok := bucketer.Parse(exDate); !ok {
			report.add(CodeUnparsedDate,
				fmt.Sprintf("ex-date %q is not a recognised date, kept as its own bucket", exDate),
				line, types.FieldExDate, exDate)
		}
	}

	return report
}

// checkHeader reports unmatched header cells and uncovered canonical fields.
func checkHeader(report *Report, table *headers.AliasTable, header csvparser.Row, idx headers.Index) {
	for _, cell := range headers.Unmatched(table, header) {
		report.add(CodeUnknownColumn,
			fmt.Sprintf("header column %q is ignored", cell),
			1, cell, "")
	}

	for _, field := range idx.Missing() {
		report.add(CodeMissingColumn,
			fmt.Sprintf("no column maps to %s", field),
			0, field, "")
	}
}
