package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaironcapital/dividendos/internal/timeline"
	"github.com/minaironcapital/dividendos/internal/types"
)

func sampleBuckets() []timeline.Bucket {
	return []timeline.Bucket{
		{
			Key:   "2024-03",
			Label: "marzo de 2024",
			Entries: []types.Record{
				{Ticker: "SAN", Empresa: "Banco Santander", ExDate: "2024-03-15", ImporteBruto: "0,10", Moneda: "EUR", Estado: "pagado", FuenteURL: "https://example.com/san"},
				{Empresa: "A|B Corp", ExDate: "15/3/24", Moneda: "EUR"},
			},
		},
		{Key: timeline.NoDateKey, Label: timeline.NoDateKey, Entries: []types.Record{{Ticker: "BKT", Moneda: "EUR"}}},
	}
}

func TestTimelineMarkdown(t *testing.T) {
	md, err := TimelineMarkdown(sampleBuckets())
	require.NoError(t, err)

	assert.Contains(t, md, "## marzo de 2024")
	assert.Contains(t, md, "## Sin fecha")
	assert.Contains(t, md, "| SAN | Banco Santander | 2024-03-15 |  | 0,10 EUR | pagado |")
	assert.Contains(t, md, `A\|B Corp`)
	assert.Less(t, strings.Index(md, "marzo de 2024"), strings.Index(md, "Sin fecha"))
}

func TestTimelineMarkdown_Empty(t *testing.T) {
	md, err := TimelineMarkdown(nil)
	require.NoError(t, err)
	assert.Contains(t, md, "No hay dividendos")
}

func TestTableMarkdown(t *testing.T) {
	md, err := TableMarkdown(sampleBuckets()[0].Entries)
	require.NoError(t, err)
	assert.Contains(t, md, "[fuente](https://example.com/san)")
	assert.Equal(t, 4, strings.Count(strings.TrimSpace(md), "\n")+1)
}

func TestTerminal(t *testing.T) {
	md, err := TimelineMarkdown(sampleBuckets())
	require.NoError(t, err)

	out, err := Terminal(md, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "marzo de 2024")
	assert.Contains(t, out, "SAN")
}

func TestTimelineText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TimelineText(&buf, sampleBuckets()))

	out := buf.String()
	assert.Contains(t, out, "marzo de 2024 (2)")
	assert.Contains(t, out, "Sin fecha (1)")
	assert.Contains(t, out, "A|B Corp")
}

func TestTableText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableText(&buf, sampleBuckets()[0].Entries))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TICKER"))
	assert.Contains(t, lines[1], "0,10 EUR")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleBuckets()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2024-03", decoded[0]["key"])
	assert.Equal(t, "marzo de 2024", decoded[0]["label"])

	entries := decoded[0]["entries"].([]any)
	first := entries[0].(map[string]any)
	assert.Equal(t, "0,10", first["importe_bruto"])
	assert.Contains(t, first, "fuente_url")
}
