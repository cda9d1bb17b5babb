// Package feed acquires the raw dividend feed.
//
// A Source returns the parsed rows of the feed, header first. The published
// spreadsheet export is fetched over HTTP; local .csv and .xlsx exports are
// read from disk. Every acquisition failure wraps ErrFeedUnavailable, the
// only error the outer surfaces need to distinguish.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/xlsxparser"
)

// ErrFeedUnavailable is returned when the feed cannot be fetched or read.
var ErrFeedUnavailable = errors.New("feed unavailable or unparsable")

// ErrNoSource is returned by NewSource when neither a URL nor a path is set.
var ErrNoSource = errors.New("no feed source configured")

// Source yields the raw rows of the feed.
type Source interface {
	Fetch(ctx context.Context) ([]csvparser.Row, error)
}

// NewSource picks the source described by cfg. URL wins over Path.
func NewSource(cfg config.FeedConfig) (Source, error) {
	switch {
	case cfg.URL != "":
		return &HTTPSource{
			URL:    cfg.URL,
			Client: &http.Client{Timeout: cfg.Timeout},
		}, nil
	case cfg.Path != "":
		return &FileSource{Path: cfg.Path, Sheet: cfg.Sheet}, nil
	default:
		return nil, ErrNoSource
	}
}

// FromLocation builds a source from a command-line location: anything with
// an http or https scheme is fetched, everything else is read from disk.
func FromLocation(location string, cfg config.FeedConfig) (Source, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		cfg.URL, cfg.Path = location, ""
	} else {
		cfg.URL, cfg.Path = "", location
	}
	return NewSource(cfg)
}

// DefaultMaxBodyBytes caps the size of a downloaded export.
const DefaultMaxBodyBytes int64 = 32 << 20

// HTTPSource fetches the published CSV export.
type HTTPSource struct {
	URL string

	// Client defaults to a client with a 15s timeout.
	Client *http.Client

	// MaxBytes limits the response body. Zero means DefaultMaxBodyBytes.
	MaxBytes int64
}

// Fetch downloads and parses the export. The request asks intermediaries
// not to serve a cached copy.
func (s *HTTPSource) Fetch(ctx context.Context) ([]csvparser.Row, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFeedUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFeedUnavailable, resp.Status)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFeedUnavailable, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrFeedUnavailable, limit)
	}

	return csvparser.Parse(string(body)), nil
}

// FileSource reads a local export. Files ending in .xlsx are read as
// workbooks, anything else as delimited text.
type FileSource struct {
	Path  string
	Sheet string
}

// Fetch reads and parses the file.
func (s *FileSource) Fetch(ctx context.Context) ([]csvparser.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}

	if strings.EqualFold(filepath.Ext(s.Path), ".xlsx") {
		rows, err := xlsxparser.ReadRows(s.Path, s.Sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
		}
		return rows, nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer f.Close()

	rows, err := csvparser.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return rows, nil
}

// StaticSource serves rows already in memory.
type StaticSource []csvparser.Row

// Fetch returns the rows.
func (s StaticSource) Fetch(context.Context) ([]csvparser.Row, error) {
	return s, nil
}

// StaticText serves delimited text already in memory.
func StaticText(text string) StaticSource {
	return StaticSource(csvparser.Parse(text))
}
