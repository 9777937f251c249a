// Package interval implements the half-open date range arithmetic shared by
// the lock store and the external availability check.
package interval

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

var ErrInvalidDate = errors.New("invalid date")

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share at least
// one instant. Ranges that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Range is a half-open [Start, End) stay.
type Range struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

func (r Range) Valid() bool {
	return r.Start.Before(r.End)
}

// Nights rounds partial days up, so a 25 hour stay counts as two nights.
func (r Range) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(math.Ceil(r.End.Sub(r.Start).Hours() / 24))
}

// Days lists the start date of every night in the range.
func (r Range) Days() []time.Time {
	n := r.Nights()
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.Start.Add(time.Duration(i)*day))
	}
	return days
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", FormatDate(r.Start), FormatDate(r.End))
}

// ParseDate accepts a calendar date or an RFC3339 timestamp and returns the
// UTC midnight of that calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return StartOfDay(t), nil
}

func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
