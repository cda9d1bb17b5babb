package converter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/feed"
	"github.com/minaironcapital/dividendos/internal/filter"
	"github.com/minaironcapital/dividendos/internal/logger"
	"github.com/minaironcapital/dividendos/internal/timeline"
)

const sampleFeed = "Ticker,Empresas,Fecha Ex,Pay_Dat,Div/Acción,Moneda,Estado,Link\n" +
	"SAN,Banco Santander,2024-03-15,2024-05-02,\"0,10\",,Pagado,https://example.com/san\n" +
	"ITX,Inditex,15/3/24,2024-05-02,0.77,EUR,Anunciado,\n" +
	",,,,,,,\n" +
	"BKT,Bankinter,,,,,Estimado,\n" +
	"REP,Repsol,pendiente,,,,Estimado,\n"

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]csvparser.Row, error) {
	return nil, errors.Join(feed.ErrFeedUnavailable, errors.New("boom"))
}

func newPipeline(source feed.Source, buf *bytes.Buffer) *Pipeline {
	return New(source, config.Default(), logger.New(buf, "debug", false))
}

func TestPipeline_Run(t *testing.T) {
	var buf bytes.Buffer
	result, err := newPipeline(feed.StaticText(sampleFeed), &buf).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Records, 4)

	san := result.Records[0]
	assert.Equal(t, "Banco Santander", san.Empresa)
	assert.Equal(t, "2024-05-02", san.PayDate)
	assert.Equal(t, "0,10", san.ImporteBruto)
	assert.Equal(t, "EUR", san.Moneda)
	assert.Equal(t, "pagado", san.Estado)
	assert.Equal(t, "https://example.com/san", san.FuenteURL)

	keys := make([]string, len(result.Buckets))
	for i, b := range result.Buckets {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"2024-03", timeline.NoDateKey, "pendiente"}, keys)
	assert.Len(t, result.Buckets[0].Entries, 2)

	assert.Equal(t, []string{"pagado", "anunciado", "estimado"}, result.Statuses)

	assert.Equal(t, 6, result.Stats.RowsParsed)
	assert.Equal(t, 8, result.Stats.ColumnsRecognized)
	assert.Equal(t, 4, result.Stats.RecordsCreated)
	assert.Equal(t, 3, result.Stats.BucketsCreated)
	assert.Equal(t, 1, result.Stats.Warnings)
	assert.Equal(t, 1, result.Report.BlankRows)

	assert.Contains(t, buf.String(), `"msg":"feed processed"`)
	assert.Contains(t, buf.String(), `"run_id":"`+result.RunID+`"`)
}

func TestPipeline_RunFailure(t *testing.T) {
	var buf bytes.Buffer
	result, err := newPipeline(failingSource{}, &buf).Run(context.Background())

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrFeedUnavailable)
	assert.Contains(t, buf.String(), "feed acquisition failed")
}

func TestPipeline_ProcessEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := newPipeline(nil, &buf)

	for _, text := range []string{"", "Ticker,Empresa\n"} {
		result := p.Process(csvparser.Parse(text))
		require.NotNil(t, result.Records)
		require.NotNil(t, result.Buckets)
		assert.Empty(t, result.Records)
		assert.Empty(t, result.Buckets)
		assert.Equal(t, 0, result.Stats.RecordsCreated)
	}
}

func TestPipeline_ProcessIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	p := newPipeline(nil, &buf)
	rows := csvparser.Parse(sampleFeed)

	first := p.Process(rows)
	second := p.Process(rows)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Buckets, second.Buckets)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPipeline_ConfigAliasesAndCurrency(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultCurrency = "USD"
	cfg.Aliases = map[string]string{"Símbolo": "ticker"}

	var buf bytes.Buffer
	p := New(nil, cfg, logger.New(&buf, "info", false))
	result := p.Process(csvparser.Parse("Símbolo,Moneda\nKO,\n"))

	require.Len(t, result.Records, 1)
	assert.Equal(t, "KO", result.Records[0].Ticker)
	assert.Equal(t, "USD", result.Records[0].Moneda)
}

func TestResult_Filter(t *testing.T) {
	var buf bytes.Buffer
	result := newPipeline(nil, &buf).Process(csvparser.Parse(sampleFeed))

	got := result.Filter(filter.State{Query: "ban", Status: "pagado"})
	require.Len(t, got, 1)
	assert.Equal(t, "SAN", got[0].Ticker)
}
