// =============================================================================
// Dividend Feed - Temporal Bucketer
// =============================================================================
//
// This module groups records into calendar-month buckets keyed by "YYYY-MM".
//
// KEY RULES (applied to the ex-date):
//   1. Blank                       -> "Sin fecha"
//   2. First strategy that parses  -> "{year}-{month:02}"
//   3. Nothing parses              -> the original text, verbatim
//
// ORDERING:
//   Buckets are sorted by plain string comparison of the key. For "YYYY-MM"
//   keys that is chronological; "Sin fecha" and verbatim keys land wherever
//   their characters put them. Records keep feed order inside a bucket.
//
// =============================================================================

package timeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"github.com/minaironcapital/dividendos/internal/types"
)

// NoDateKey is the bucket key for records without an ex-date.
const NoDateKey = "Sin fecha"

// DefaultLocale is the display locale of the feed.
const DefaultLocale = "es_ES"

var monthKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// =============================================================================
// BUCKET
// =============================================================================

// Bucket is one month of the timeline.
type Bucket struct {
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Entries []types.Record `json:"entries"`
}

// =============================================================================
// BUCKETER
// =============================================================================

// Bucketer derives month keys and labels. It is immutable once built.
type Bucketer struct {
	strategies []DateStrategy
	locale     monday.Locale
}

// NewBucketer creates a bucketer.
//
// PARAMETERS:
//   - locale: Display locale for labels (e.g. "es_ES"). Empty means es_ES.
//   - strategies: Date strategies tried in order. None means DefaultStrategies.
//
// RETURNS:
//   - A Bucketer.
func NewBucketer(locale string, strategies ...DateStrategy) *Bucketer {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return &Bucketer{
		strategies: strategies,
		locale:     monday.Locale(locale),
	}
}

// Parse runs the strategies over text and returns the first date found.
func (b *Bucketer) Parse(text string) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, strategy := range b.strategies {
		if t, ok := strategy(trimmed); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Key returns the bucket key for an ex-date.
func (b *Bucketer) Key(exDate string) string {
	if strings.TrimSpace(exDate) == "" {
		return NoDateKey
	}
	t, ok := b.Parse(exDate)
	if !ok {
		return exDate
	}
	return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
}

// Group buckets records by the month of their ex-date.
//
// PARAMETERS:
//   - records: Normalized records in feed order.
//
// RETURNS:
//   - Buckets sorted by key, each labelled. Never nil.
func (b *Bucketer) Group(records []types.Record) []Bucket {
	byKey := make(map[string][]types.Record)
	for _, record := range records {
		key := b.Key(record.ExDate)
		byKey[key] = append(byKey[key], record)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buckets := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, Bucket{
			Key:     key,
			Label:   b.Label(key),
			Entries: byKey[key],
		})
	}
	return buckets
}

// Label renders a month key as "marzo de 2024" style text in the bucketer's
// locale. Sentinel and verbatim keys are returned unchanged.
func (b *Bucketer) Label(key string) string {
	m := monthKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return key
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return key
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return monday.Format(first, labelLayout(b.locale), b.locale)
}

// labelLayout picks the long month-and-year layout for a locale.
func labelLayout(locale monday.Locale) string {
	lang, _, _ := strings.Cut(string(locale), "_")
	switch lang {
	case "es", "pt", "ca", "gl":
		return "January de 2006"
	default:
		return "January 2006"
	}
}

// =============================================================================
// PACKAGE HELPERS
// =============================================================================

var defaultBucketer = NewBucketer(DefaultLocale)

// MonthKey returns the bucket key for an ex-date using the default strategies.
func MonthKey(exDate string) string {
	return defaultBucketer.Key(exDate)
}

// Group buckets records with the default bucketer.
func Group(records []types.Record) []Bucket {
	return defaultBucketer.Group(records)
}

// Label renders a month key in the default locale.
func Label(key string) string {
	return defaultBucketer.Label(key)
}
