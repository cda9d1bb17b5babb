package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateStrategy tries to read a calendar date from trimmed, non-empty text.
type DateStrategy func(text string) (time.Time, bool)

var (
	isoPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyPattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
)

// DefaultStrategies returns the strategies in the order the feed needs them:
// ISO date, day/month/year, then a generic interpretation.
func DefaultStrategies() []DateStrategy {
	return []DateStrategy{ISODate, DayMonthYear, GenericDate}
}

// ISODate accepts exactly YYYY-MM-DD.
func ISODate(text string) (time.Time, bool) {
	if !isoPattern.MatchString(text) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, text)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayMonthYear accepts D/M/Y with one or two digit day and month and a two to
// four digit year, separated by "/" or "-". Years below 100 are 20xx.
// The result must be a real calendar date: 31/2/24 is rejected rather than
// rolled over into March the way a lenient date constructor would.
func DayMonthYear(text string) (time.Time, bool) {
	m := dmyPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// GenericDate hands the text to dateparse, which understands most written
// date forms ("March 15, 2024", "2024/03/15", RFC 3339 ...).
func GenericDate(text string) (t time.Time, ok bool) {
	// dateparse can panic on some malformed inputs.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseAny(strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
