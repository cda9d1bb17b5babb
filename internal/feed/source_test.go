package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/csvparser"
)

const sampleCSV = "Ticker,Empresa,Ex-Date\r\nSAN,\"Banco Santander, SA\",2024-03-15\r\n"

var sampleRows = []csvparser.Row{
	{"Ticker", "Empresa", "Ex-Date"},
	{"SAN", "Banco Santander, SA", "2024-03-15"},
}

func TestHTTPSource_Fetch(t *testing.T) {
	var cacheControl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cacheControl = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	rows, err := (&HTTPSource{URL: srv.URL}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
	assert.Equal(t, "no-store", cacheControl)
}

func TestHTTPSource_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := (&HTTPSource{URL: srv.URL}).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeedUnavailable))
	assert.Contains(t, err.Error(), "404")

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	_, err = (&HTTPSource{URL: url}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestHTTPSource_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	size := int64(len(sampleCSV))

	_, err := (&HTTPSource{URL: srv.URL, MaxBytes: size - 1}).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "exceeds")

	rows, err := (&HTTPSource{URL: srv.URL, MaxBytes: size}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&HTTPSource{URL: srv.URL}).Fetch(ctx)
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestHTTPSource_EmptyBodyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	rows, err := (&HTTPSource{URL: srv.URL}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFileSource_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	rows, err := (&FileSource{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
}

func TestFileSource_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Ticker", "Empresa", "Ex-Date"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"SAN", "Banco Santander, SA", "2024-03-15"}))
	path := filepath.Join(t.TempDir(), "feed.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := (&FileSource{Path: path}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
}

func TestFileSource_Missing(t *testing.T) {
	_, err := (&FileSource{Path: filepath.Join(t.TempDir(), "nope.csv")}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "nope.xlsx")}).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(config.FeedConfig{URL: "https://example.com/pub?output=csv", Path: "feed.csv", Timeout: time.Second})
	require.NoError(t, err)
	httpSrc, ok := src.(*HTTPSource)
	require.True(t, ok)
	assert.Equal(t, time.Second, httpSrc.Client.Timeout)

	src, err = NewSource(config.FeedConfig{Path: "feed.xlsx", Sheet: "2025"})
	require.NoError(t, err)
	assert.Equal(t, &FileSource{Path: "feed.xlsx", Sheet: "2025"}, src)

	_, err = NewSource(config.FeedConfig{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestFromLocation(t *testing.T) {
	src, err := FromLocation("https://example.com/x.csv", config.FeedConfig{Path: "ignored.csv"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	src, err = FromLocation("./local.csv", config.FeedConfig{URL: "https://example.com/x.csv"})
	require.NoError(t, err)
	assert.Equal(t, &FileSource{Path: "./local.csv"}, src)
}

func TestStaticText(t *testing.T) {
	rows, err := StaticText(sampleCSV).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRows, rows)
}
