package timewindow

import (
	"strings"
	"time"
)

// Span selects a calendar-aligned reporting window.
type Span string

const (
	SpanNone  Span = ""
	SpanHour  Span = "hour"
	SpanDay   Span = "day"
	SpanWeek  Span = "week"
	SpanMonth Span = "month"
	SpanYear  Span = "year"
)

// RefLayout is the wire format for the reference instant query parameter.
const RefLayout = "2006-01-02T15:04"

// Window is a half-open interval [Start, End). A nil bound means unbounded on
// that side; both nil means no time filter at all.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// ParseSpan maps a raw query value onto a Span. Unknown or empty input
// resolves to SpanNone rather than an error so callers fall back to an
// unfiltered query.
func ParseSpan(value string) Span {
	switch Span(strings.ToLower(strings.TrimSpace(value))) {
	case SpanHour:
		return SpanHour
	case SpanDay:
		return SpanDay
	case SpanWeek:
		return SpanWeek
	case SpanMonth:
		return SpanMonth
	case SpanYear:
		return SpanYear
	default:
		return SpanNone
	}
}

// ParseRef parses the reference instant in the given location, falling back
// to the current time there when the value is absent or malformed.
func ParseRef(value string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		if ref, err := time.ParseInLocation(RefLayout, trimmed, loc); err == nil {
			return ref
		}
	}
	return time.Now().In(loc)
}

// Resolve computes the calendar interval containing ref for the given span,
// in ref's location. SpanNone yields the unbounded window.
func Resolve(span Span, ref time.Time) Window {
	switch span {
	case SpanHour:
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), ref.Hour(), 0, 0, 0, ref.Location())
		return between(start, start.Add(time.Hour))
	case SpanDay:
		start := midnight(ref)
		return between(start, start.AddDate(0, 0, 1))
	case SpanWeek:
		start := startOfWeek(ref)
		return between(start, start.AddDate(0, 0, 7))
	case SpanMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return between(start, start.AddDate(0, 1, 0))
	case SpanYear:
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
		return between(start, start.AddDate(1, 0, 0))
	default:
		return Window{}
	}
}

// LastHour is the rolling hour ending at ref.
func LastHour(ref time.Time) Window {
	return between(ref.Add(-time.Hour), ref)
}

// Today is the calendar day containing ref.
func Today(ref time.Time) Window {
	return Resolve(SpanDay, ref)
}

// Yesterday is the calendar day before the one containing ref.
func Yesterday(ref time.Time) Window {
	return Resolve(SpanDay, ref.AddDate(0, 0, -1))
}

// ThisWeek is the Monday-started calendar week containing ref.
func ThisWeek(ref time.Time) Window {
	return Resolve(SpanWeek, ref)
}

// ThisMonth is the calendar month containing ref.
func ThisMonth(ref time.Time) Window {
	return Resolve(SpanMonth, ref)
}

// AllTime is the unbounded window.
func AllTime() Window {
	return Window{}
}

// IsZero reports whether the window applies no time filter.
func (w Window) IsZero() bool {
	return w.Start == nil && w.End == nil
}

// Contains reports whether t falls inside the half-open interval.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && !t.Before(*w.End) {
		return false
	}
	return true
}

func between(start, end time.Time) Window {
	return Window{Start: &start, End: &end}
}

func midnight(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
}

// startOfWeek returns the most recent Monday midnight at or before ref.
func startOfWeek(ref time.Time) time.Time {
	day := midnight(ref)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
