// =============================================================================
// Dividend Feed - Shared Types
// =============================================================================
//
// This package contains the record type shared by the normalizer, the
// timeline bucketer, the filter engine and every exporter. Keeping it here
// avoids import cycles between:
//   - converter
//   - timeline
//   - filter
//   - xmlwriter / render / server
//
// =============================================================================

package types

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

// Canonical field names. Every header alias resolves to one of these.
const (
	FieldTicker       = "ticker"
	FieldEmpresa      = "empresa"
	FieldExDate       = "ex_date"
	FieldPayDate      = "pay_date"
	FieldImporteBruto = "importe_bruto"
	FieldMoneda       = "moneda"
	FieldEstado       = "estado"
	FieldFuenteURL    = "fuente_url"
)

// CanonicalFields lists the canonical fields in display order.
var CanonicalFields = []string{
	FieldTicker,
	FieldEmpresa,
	FieldExDate,
	FieldPayDate,
	FieldImporteBruto,
	FieldMoneda,
	FieldEstado,
	FieldFuenteURL,
}

// DefaultCurrency is used when a row carries no currency.
const DefaultCurrency = "EUR"

// =============================================================================
// RECORD
// =============================================================================

// Record is one normalized dividend event.
//
// All values are trimmed strings. ImporteBruto is kept exactly as the feed
// wrote it: the feed mixes "1,02" and "1.02", so it is never parsed.
type Record struct {
	Ticker       string `json:"ticker" xml:"ticker"`
	Empresa      string `json:"empresa" xml:"empresa"`
	ExDate       string `json:"ex_date" xml:"ex_date"`
	PayDate      string `json:"pay_date" xml:"pay_date"`
	ImporteBruto string `json:"importe_bruto" xml:"importe_bruto"`
	Moneda       string `json:"moneda" xml:"moneda"`
	Estado       string `json:"estado" xml:"estado"`
	FuenteURL    string `json:"fuente_url" xml:"fuente_url"`
}

// Field returns the value of a canonical field, or "" for unknown names.
func (r Record) Field(name string) string {
	switch name {
	case FieldTicker:
		return r.Ticker
	case FieldEmpresa:
		return r.Empresa
	case FieldExDate:
		return r.ExDate
	case FieldPayDate:
		return r.PayDate
	case FieldImporteBruto:
		return r.ImporteBruto
	case FieldMoneda:
		return r.Moneda
	case FieldEstado:
		return r.Estado
	case FieldFuenteURL:
		return r.FuenteURL
	}
	return ""
}

// DisplayName returns the ticker, or the company name when the ticker is blank.
func (r Record) DisplayName() string {
	if r.Ticker != "" {
		return r.Ticker
	}
	return r.Empresa
}
