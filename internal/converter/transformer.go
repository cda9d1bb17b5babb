// =============================================================================
// Dividend Feed - Record Normalizer
// =============================================================================
//
// This module maps raw data rows, through the canonical header index, into
// normalized records. For every canonical field it:
//   1. Looks up the column position in the header index
//   2. Reads the cell (missing column or short row -> "")
//   3. Trims surrounding whitespace
//   4. Runs the field's post-processing actions
//
// POST-PROCESSING:
//   - moneda: blank -> default currency ("EUR")
//   - estado: lowercased, otherwise verbatim
//   - importe_bruto: untouched raw text, never parsed as a number
//
// Rows whose cells are all blank are dropped before mapping. Normalization is
// a pure function of its inputs and never fails.
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/headers"
	"github.com/minaironcapital/dividendos/internal/types"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Action post-processes one trimmed field value.
type Action func(value string) string

// Transformer holds the per-field actions. It is read-only after
// construction and safe for concurrent use.
type Transformer struct {
	actions map[string][]Action
}

// NewTransformer creates the transformer used for the feed.
//
// PARAMETERS:
//   - defaultCurrency: Value for blank currency cells. Empty means "EUR".
//
// RETURNS:
//   - A Transformer with the standard actions installed.
func NewTransformer(defaultCurrency string) *Transformer {
	if strings.TrimSpace(defaultCurrency) == "" {
		defaultCurrency = types.DefaultCurrency
	}

	return &Transformer{
		actions: map[string][]Action{
			types.FieldMoneda: {DefaultTo(defaultCurrency)},
			types.FieldEstado: {strings.ToLower},
		},
	}
}

// DefaultTo returns an action replacing an empty value with fallback.
func DefaultTo(fallback string) Action {
	return func(value string) string {
		if value == "" {
			return fallback
		}
		return value
	}
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize maps data rows to records with the default transformer.
func Normalize(idx headers.Index, rows []csvparser.Row) []types.Record {
	return NewTransformer(types.DefaultCurrency).Normalize(idx, rows)
}

// Normalize maps data rows (header excluded) to records.
//
// PARAMETERS:
//   - idx: The header index built from the first row.
//   - rows: The remaining rows, in feed order.
//
// RETURNS:
//   - One record per non-blank row, in feed order. Never nil.
func (t *Transformer) Normalize(idx headers.Index, rows []csvparser.Row) []types.Record {
	records := make([]types.Record, 0, len(rows))

	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		records = append(records, t.Record(idx, row))
	}

	return records
}

// Record builds one record from a single row. Blank rows are not filtered here.
func (t *Transformer) Record(idx headers.Index, row csvparser.Row) types.Record {
	get := func(field string) string {
		value := ""
		if pos, ok := idx.Position(field); ok {
			value = strings.TrimSpace(row.Cell(pos))
		}
		for _, action := range t.actions[field] {
			value = action(value)
		}
		return value
	}

	return types.Record{
		Ticker:       get(types.FieldTicker),
		Empresa:      get(types.FieldEmpresa),
		ExDate:       get(types.FieldExDate),
		PayDate:      get(types.FieldPayDate),
		ImporteBruto: get(types.FieldImporteBruto),
		Moneda:       get(types.FieldMoneda),
		Estado:       get(types.FieldEstado),
		FuenteURL:    get(types.FieldFuenteURL),
	}
}
