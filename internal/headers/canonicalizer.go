// =============================================================================
// Dividend Feed - Header Canonicalizer
// =============================================================================
//
// This module maps the header row of the feed onto the canonical field set.
// The feed is edited by hand, so the same column shows up as "Fecha Ex",
// "ex_date", "EX DATE" or "Fechas ex". Every header cell and every alias key
// goes through the same normalization:
//   1. Lowercase
//   2. Unicode canonical decomposition (NFD)
//   3. Drop combining marks (accents)
//   4. Drop every character outside [a-z0-9_]
//
// Lookup tries the exact token first and then the token with one trailing
// "s" removed. The first column that resolves to a canonical field wins.
//
// =============================================================================

package headers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/types"
)

// =============================================================================
// NORMALIZATION
// =============================================================================

// stripMarks decomposes and removes combining diacritical marks.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Norm normalizes a header cell or alias key into a lookup token.
func Norm(s string) string {
	decomposed, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		decomposed = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// ALIAS TABLE
// =============================================================================

// DefaultAliases returns the built-in alias map, keyed by raw alias spelling.
// Keys are normalized by NewAliasTable, so they may be written naturally.
func DefaultAliases() map[string]string {
	return map[string]string{
		"ticker":  types.FieldTicker,
		"empresa": types.FieldEmpresa,

		"exdate":   types.FieldExDate,
		"ex_date":  types.FieldExDate,
		"fecha ex": types.FieldExDate,
		"data":     types.FieldExDate,

		"paydate":  types.FieldPayDate,
		"pay_date": types.FieldPayDate,
		"paydat":   types.FieldPayDate,
		"pay_dat":  types.FieldPayDate,

		// "Importe/Bruto" and "Importe Bruto" normalize to "importebruto",
		// which stays unmapped. Map it through the aliases config if needed.
		"importe_bruto": types.FieldImporteBruto,
		"importebru":    types.FieldImporteBruto,
		"div/acción":    types.FieldImporteBruto,
		"divaccio":      types.FieldImporteBruto,

		"moneda": types.FieldMoneda,
		"estado": types.FieldEstado,

		"fuenteurl":  types.FieldFuenteURL,
		"fuente_url": types.FieldFuenteURL,
		"fuente":     types.FieldFuenteURL,
		"link":       types.FieldFuenteURL,
	}
}

// AliasTable maps normalized alias tokens to canonical field names.
// It is built once and only read afterwards.
type AliasTable struct {
	aliases map[string]string
}

// NewAliasTable builds a table from one or more alias maps. Later maps
// override earlier ones for the same normalized token. Keys that normalize
// to the empty string are ignored.
//
// PARAMETERS:
//   - sources: Alias maps keyed by raw spelling, valued by canonical field.
//
// RETURNS:
//   - A read-only AliasTable.
func NewAliasTable(sources ...map[string]string) *AliasTable {
	t := &AliasTable{aliases: make(map[string]string)}

	for _, src := range sources {
		for alias, canonical := range src {
			key := Norm(alias)
			if key == "" || canonical == "" {
				continue
			}
			t.aliases[key] = canonical
		}
	}

	return t
}

// Lookup resolves a normalized token. When the exact token is unknown, one
// trailing "s" is stripped and the lookup retried.
func (t *AliasTable) Lookup(token string) (string, bool) {
	if canonical, ok := t.aliases[token]; ok {
		return canonical, true
	}
	if singular, ok := strings.CutSuffix(token, "s"); ok && singular != "" {
		canonical, ok := t.aliases[singular]
		return canonical, ok
	}
	return "", false
}

// Len returns the number of alias tokens in the table.
func (t *AliasTable) Len() int {
	return len(t.aliases)
}

// =============================================================================
// HEADER INDEX
// =============================================================================

// Index maps a canonical field name to its column position.
type Index map[string]int

// Canonicalize builds the header index for a header row.
//
// PARAMETERS:
//   - table: The alias table.
//   - header: The first row of the feed.
//
// RETURNS:
//   - The index. Unrecognized columns are absent; a header with no known
//     columns yields an empty (non-nil) index.
func Canonicalize(table *AliasTable, header csvparser.Row) Index {
	idx := make(Index)

	for i, cell := range header {
		canonical, ok := table.Lookup(Norm(cell))
		if !ok {
			continue
		}
		if _, seen := idx[canonical]; seen {
			continue
		}
		idx[canonical] = i
	}

	return idx
}

// Position returns the column for a canonical field.
func (idx Index) Position(field string) (int, bool) {
	pos, ok := idx[field]
	return pos, ok
}

// Missing returns the canonical fields the index does not cover, in
// canonical order.
func (idx Index) Missing() []string {
	var missing []string
	for _, field := range types.CanonicalFields {
		if _, ok := idx[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// Unmatched returns the header cells that resolved to nothing, plus the
// cells that resolved to a field already claimed by an earlier column.
func Unmatched(table *AliasTable, header csvparser.Row) []string {
	var unmatched []string
	claimed := make(map[string]bool)

	for _, cell := range header {
		canonical, ok := table.Lookup(Norm(cell))
		if !ok || claimed[canonical] {
			if strings.TrimSpace(cell) != "" {
				unmatched = append(unmatched, cell)
			}
			continue
		}
		claimed[canonical] = true
	}

	return unmatched
}
