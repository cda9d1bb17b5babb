// =============================================================================
// Dividend Feed - Delimited-Text Parser
// =============================================================================
//
// This module turns the raw text of a published spreadsheet export into rows
// of raw string fields. It is deliberately lenient:
//   - Comma separates fields, line feed separates records
//   - Carriage returns are dropped everywhere, even inside quoted fields
//   - A quote opens a quoted section; "" inside it is a literal quote
//   - Commas and line feeds inside a quoted section are field content
//   - Pending content at end of input is flushed as a final row
//
// The parser never fails. Broken quoting simply moves field boundaries; the
// later pipeline stages absorb the damage.
//
// encoding/csv is not used: it reports ErrQuote / ErrBareQuote on exactly the
// inputs this feed produces, and it keeps \r inside quoted fields.
//
// =============================================================================

package csvparser

import (
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// ROW TYPE
// =============================================================================

// Row is one logical record of the feed. A quoted field may span several
// physical lines, so a Row is not necessarily one line of text.
type Row []string

// IsEmpty reports whether every cell of the row is empty or whitespace.
func (r Row) IsEmpty() bool {
	for _, cell := range r {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Cell returns the cell at position i, or "" when the row is too short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// =============================================================================
// PARSER STATE
// =============================================================================

const (
	delimiter = ','
	newline   = '\n'
	carriage  = '\r'
	quote     = '"'
)

// parser accumulates the current field and row while scanning the input.
type parser struct {
	rows     []Row
	row      Row
	field    strings.Builder
	inQuotes bool
}

func (p *parser) endField() {
	p.row = append(p.row, p.field.String())
	p.field.Reset()
}

func (p *parser) endRow() {
	p.endField()
	p.rows = append(p.rows, p.row)
	p.row = nil
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse splits the full text of the feed into rows.
//
// PARAMETERS:
//   - text: The complete feed body, assumed UTF-8.
//
// RETURNS:
//   - The rows in input order. A blank input yields no rows.
//
// The scan works on bytes: every structural character is ASCII, and UTF-8
// continuation bytes can never be mistaken for one of them.
func Parse(text string) []Row {
	p := &parser{}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == carriage {
			continue
		}

		if p.inQuotes {
			switch {
			case c == quote && i+1 < len(text) && text[i+1] == quote:
				p.field.WriteByte(quote)
				i++
			case c == quote:
				p.inQuotes = false
			default:
				p.field.WriteByte(c)
			}
			continue
		}

		switch c {
		case quote:
			p.inQuotes = true
		case delimiter:
			p.endField()
		case newline:
			p.endRow()
		default:
			p.field.WriteByte(c)
		}
	}

	// Flush whatever is pending when the input has no trailing newline.
	if p.field.Len() > 0 || len(p.row) > 0 {
		p.endRow()
	}

	return p.rows
}

// ParseReader reads r to the end and parses the result.
//
// RETURNS:
//   - The parsed rows.
//   - An error only if reading fails; parsing itself cannot fail.
func ParseReader(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return Parse(string(data)), nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Serialize writes rows back to delimited text using the same quoting rules
// Parse understands. Every row is terminated by a line feed, so any row with
// at least one field survives Parse(Serialize(rows)) unchanged, provided no
// field contains a carriage return.
func Serialize(rows []Row) string {
	var b strings.Builder

	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(delimiter)
			}
			writeField(&b, field)
		}
		b.WriteByte(newline)
	}

	return b.String()
}

// writeField quotes a field when it holds a delimiter, a quote or a line break.
func writeField(b *strings.Builder, field string) {
	if !strings.ContainsAny(field, ",\"\n\r") {
		b.WriteString(field)
		return
	}

	b.WriteByte(quote)
	b.WriteString(strings.ReplaceAll(field, `"`, `""`))
	b.WriteByte(quote)
}
