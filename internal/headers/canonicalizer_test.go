package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/types"
)

func TestNorm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Empresa", "empresa"},
		{"Fecha Ex", "fechaex"},
		{"PAY_DATE", "pay_date"},
		{"Importe/Bruto", "importebruto"},
		{"Div/Acción", "divaccion"},
		{"  Fuente URL ", "fuenteurl"},
		{"Compañía", "compania"},
		{"€ (EUR)", "eur"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Norm(tt.in))
		})
	}
}

func TestAliasTable_Lookup(t *testing.T) {
	table := NewAliasTable(DefaultAliases())

	got, ok := table.Lookup("fechaex")
	require.True(t, ok)
	assert.Equal(t, types.FieldExDate, got)

	got, ok = table.Lookup("estados")
	require.True(t, ok, "trailing s is stripped once")
	assert.Equal(t, types.FieldEstado, got)

	_, ok = table.Lookup("tickerss")
	assert.False(t, ok, "only one trailing s is stripped")

	_, ok = table.Lookup("s")
	assert.False(t, ok)

	_, ok = table.Lookup("importebruto")
	assert.False(t, ok)
}

func TestNewAliasTable_NormalizesKeysAndOverrides(t *testing.T) {
	table := NewAliasTable(
		DefaultAliases(),
		map[string]string{
			"Símbolo":       types.FieldTicker,
			"Importe Bruto": types.FieldImporteBruto,
			"///":           types.FieldMoneda,
			"vacío":         "",
		},
	)

	got, ok := table.Lookup("simbolo")
	require.True(t, ok)
	assert.Equal(t, types.FieldTicker, got)

	got, ok = table.Lookup("importebruto")
	require.True(t, ok)
	assert.Equal(t, types.FieldImporteBruto, got)

	_, ok = table.Lookup("vacio")
	assert.False(t, ok)

	assert.Equal(t, NewAliasTable(DefaultAliases()).Len()+2, table.Len())
}

func TestCanonicalize(t *testing.T) {
	table := NewAliasTable(DefaultAliases())
	header := csvparser.Row{"Empresa", "Fecha Ex", "PAY_DATE", "Importe/Bruto"}

	idx := Canonicalize(table, header)

	assert.Equal(t, Index{
		types.FieldEmpresa: 0,
		types.FieldExDate:  1,
		types.FieldPayDate: 2,
	}, idx)
	assert.Equal(t, []string{"Importe/Bruto"}, Unmatched(table, header))
}

func TestCanonicalize_ImporteBrutoNeedsAlias(t *testing.T) {
	header := csvparser.Row{"Ticker", "Importe Bruto"}

	idx := Canonicalize(NewAliasTable(DefaultAliases()), header)
	_, ok := idx[types.FieldImporteBruto]
	assert.False(t, ok)

	table := NewAliasTable(DefaultAliases(), map[string]string{"Importe Bruto": types.FieldImporteBruto})
	idx = Canonicalize(table, header)
	assert.Equal(t, 1, idx[types.FieldImporteBruto])
	assert.Empty(t, Unmatched(table, header))
}

func TestCanonicalize_FirstColumnWins(t *testing.T) {
	table := NewAliasTable(DefaultAliases())
	header := csvparser.Row{"Ticker", "Ex date", "Tickers", "Data"}

	idx := Canonicalize(table, header)

	assert.Equal(t, 0, idx[types.FieldTicker])
	assert.Equal(t, 1, idx[types.FieldExDate])
	assert.Equal(t, []string{"Tickers", "Data"}, Unmatched(table, header))
}

func TestCanonicalize_NothingRecognized(t *testing.T) {
	table := NewAliasTable(DefaultAliases())

	idx := Canonicalize(table, csvparser.Row{"foo", "bar", ""})

	require.NotNil(t, idx)
	assert.Empty(t, idx)
	assert.Equal(t, types.CanonicalFields, idx.Missing())
}

func TestIndex_Missing(t *testing.T) {
	idx := Index{types.FieldTicker: 0, types.FieldMoneda: 3}
	assert.Equal(t, []string{
		types.FieldEmpresa,
		types.FieldExDate,
		types.FieldPayDate,
		types.FieldImporteBruto,
		types.FieldEstado,
		types.FieldFuenteURL,
	}, idx.Missing())

	pos, ok := idx.Position(types.FieldMoneda)
	assert.True(t, ok)
	assert.Equal(t, 3, pos)
}
