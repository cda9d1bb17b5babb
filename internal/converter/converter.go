// =============================================================================
// Dividend Feed - Pipeline
// =============================================================================
//
// This module orchestrates one full ingestion run, from acquisition to the
// time-bucketed view.
//
// PIPELINE:
//   1. Fetch the raw rows from the feed source
//   2. Canonicalize the header row (row 0)
//   3. Normalize the data rows into records
//   4. Group the records into month buckets
//   5. Inspect the feed and collect non-fatal diagnostics
//
// Only step 1 can fail. Everything after it degrades gracefully: an empty
// feed, a header with no known columns or a row full of garbage all produce
// a (possibly empty) result, never an error.
//
// CONCURRENCY:
//   A Pipeline holds only read-only collaborators. Run may be called from
//   several goroutines; each call produces an independent Result.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/csvparser"
	"github.com/minaironcapital/dividendos/internal/feed"
	"github.com/minaironcapital/dividendos/internal/filter"
	"github.com/minaironcapital/dividendos/internal/headers"
	"github.com/minaironcapital/dividendos/internal/logger"
	"github.com/minaironcapital/dividendos/internal/timeline"
	"github.com/minaironcapital/dividendos/internal/types"
	"github.com/minaironcapital/dividendos/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the immutable outcome of one run.
type Result struct {
	// RunID identifies the run in logs and export file names.
	RunID string `json:"run_id"`

	// LoadedAt is when the feed was acquired.
	LoadedAt time.Time `json:"loaded_at"`

	// Records are the normalized records in feed order.
	Records []types.Record `json:"records"`

	// Buckets is the timeline, sorted by key.
	Buckets []timeline.Bucket `json:"buckets"`

	// Statuses are the distinct estado values, for filter facets.
	Statuses []string `json:"statuses"`

	// Report holds the diagnostics of the feed.
	Report *validation.Report `json:"diagnostics"`

	Stats ProcessingStats `json:"stats"`
}

// ProcessingStats contains statistics about a run.
type ProcessingStats struct {
	// RowsParsed counts every parsed row, header included.
	RowsParsed int `json:"rows_parsed"`

	// ColumnsRecognized is the number of canonical fields the header covers.
	ColumnsRecognized int `json:"columns_recognized"`

	// RecordsCreated is the number of records kept after blank rows are dropped.
	RecordsCreated int `json:"records_created"`

	// BucketsCreated is the number of month buckets.
	BucketsCreated int `json:"buckets_created"`

	// Warnings is the number of diagnostics.
	Warnings int `json:"warnings"`

	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// Filter applies a filter state to the records of the run.
func (r *Result) Filter(state filter.State) []types.Record {
	return filter.Apply(r.Records, state)
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs ingestion for one feed source.
type Pipeline struct {
	source      feed.Source
	table       *headers.AliasTable
	transformer *Transformer
	bucketer    *timeline.Bucketer
	logger      *slog.Logger
}

// New creates a pipeline from configuration.
//
// PARAMETERS:
//   - source: Where the feed comes from.
//   - cfg: The application configuration (aliases, currency, locale).
//   - log: The logger. Nil means slog.Default().
//
// RETURNS:
//   - A ready Pipeline.
func New(source feed.Source, cfg *config.Config, log *slog.Logger) *Pipeline {
	return NewWith(
		source,
		headers.NewAliasTable(headers.DefaultAliases(), cfg.Aliases),
		NewTransformer(cfg.DefaultCurrency),
		timeline.NewBucketer(cfg.Display.Locale),
		log,
	)
}

// NewWith creates a pipeline from explicit collaborators.
func NewWith(source feed.Source, table *headers.AliasTable, transformer *Transformer, bucketer *timeline.Bucketer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		source:      source,
		table:       table,
		transformer: transformer,
		bucketer:    bucketer,
		logger:      log.With("component", "pipeline"),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run fetches the feed and processes it.
//
// RETURNS:
//   - The result of the run.
//   - An error wrapping feed.ErrFeedUnavailable if acquisition fails.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	// =========================================================================
	// STEP 1: FETCH
	// =========================================================================

	p.logger.DebugContext(ctx, "fetching feed")

	rows, err := p.source.Fetch(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "feed acquisition failed", "error", err)
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	p.logger.DebugContext(ctx, "feed fetched", "rows", len(rows))

	// =========================================================================
	// STEPS 2-5: PROCESS
	// =========================================================================

	result := p.process(rows)
	result.RunID = runID

	result.Report.LogTo(p.logger.With("run_id", runID))

	p.logger.InfoContext(ctx, "feed processed",
		"records", result.Stats.RecordsCreated,
		"buckets", result.Stats.BucketsCreated,
		"warnings", result.Stats.Warnings,
		"duration", result.Stats.ProcessingTime,
	)

	return result, nil
}

// Process runs steps 2 to 5 over rows already in memory. It performs no I/O
// and never fails.
func (p *Pipeline) Process(rows []csvparser.Row) *Result {
	result := p.process(rows)
	result.RunID = uuid.NewString()
	return result
}

func (p *Pipeline) process(rows []csvparser.Row) *Result {
	startTime := time.Now()
	result := &Result{
		LoadedAt: startTime.UTC(),
		Records:  []types.Record{},
	}
	result.Stats.RowsParsed = len(rows)

	// =========================================================================
	// STEP 2: CANONICALIZE HEADER
	// =========================================================================
	// A feed with no rows has no header either; it yields an empty result.

	if len(rows) > 0 {
		idx := headers.Canonicalize(p.table, rows[0])
		result.Stats.ColumnsRecognized = len(idx)

		// =====================================================================
		// STEP 3: NORMALIZE RECORDS
		// =====================================================================

		result.Records = p.transformer.Normalize(idx, rows[1:])
	}

	result.Stats.RecordsCreated = len(result.Records)

	// =========================================================================
	// STEP 4: BUCKET BY MONTH
	// =========================================================================

	result.Buckets = p.bucketer.Group(result.Records)
	result.Statuses = filter.Statuses(result.Records)
	result.Stats.BucketsCreated = len(result.Buckets)

	// =========================================================================
	// STEP 5: DIAGNOSTICS
	// =========================================================================

	result.Report = validation.Inspect(p.table, rows, p.bucketer)
	result.Stats.Warnings = result.Report.WarningCount()

	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}
