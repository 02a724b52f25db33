package timewindow

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestResolveDay(t *testing.T) {
	ref := time.Date(2024, time.March, 15, 14, 30, 12, 0, time.UTC)
	win := Resolve(SpanDay, ref)

	wantStart := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)
	if !win.Start.Equal(wantStart) || !win.End.Equal(wantEnd) {
		t.Fatalf("day window [%v, %v), want [%v, %v)", win.Start, win.End, wantStart, wantEnd)
	}
}

func TestResolveWeekStartsMonday(t *testing.T) {
	// 2024-03-15 is a Friday; its week runs Mon 03-11 .. Mon 03-18.
	ref := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)
	win := Resolve(SpanWeek, ref)

	wantStart := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC)
	if !win.Start.Equal(wantStart) || !win.End.Equal(wantEnd) {
		t.Fatalf("week window [%v, %v), want [%v, %v)", win.Start, win.End, wantStart, wantEnd)
	}

	// A Monday reference is its own week start.
	monday := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	win = Resolve(SpanWeek, monday)
	if !win.Start.Equal(monday) {
		t.Fatalf("monday ref should start its own week, got %v", win.Start)
	}

	// Sunday belongs to the week begun the previous Monday.
	sunday := time.Date(2024, time.March, 17, 23, 59, 0, 0, time.UTC)
	win = Resolve(SpanWeek, sunday)
	if !win.Start.Equal(wantStart) {
		t.Fatalf("sunday ref week start %v, want %v", win.Start, wantStart)
	}
}

func TestResolveMonthDecemberRollover(t *testing.T) {
	ref := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)
	win := Resolve(SpanMonth, ref)

	wantStart := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !win.Start.Equal(wantStart) || !win.End.Equal(wantEnd) {
		t.Fatalf("month window [%v, %v), want [%v, %v)", win.Start, win.End, wantStart, wantEnd)
	}
}

func TestResolveHourAndYear(t *testing.T) {
	loc := mustLoc(t, "Europe/Paris")
	ref := time.Date(2024, time.March, 15, 14, 45, 59, 0, loc)

	hour := Resolve(SpanHour, ref)
	if hour.Start.Hour() != 14 || hour.Start.Minute() != 0 {
		t.Fatalf("hour window start %v", hour.Start)
	}
	if !hour.End.Equal(hour.Start.Add(time.Hour)) {
		t.Fatalf("hour window end %v", hour.End)
	}
	if hour.Start.Location() != loc {
		t.Fatalf("window should stay in ref location, got %v", hour.Start.Location())
	}

	year := Resolve(SpanYear, ref)
	if year.Start.Month() != time.January || year.Start.Day() != 1 || year.Start.Year() != 2024 {
		t.Fatalf("year window start %v", year.Start)
	}
	if year.End.Year() != 2025 {
		t.Fatalf("year window end %v", year.End)
	}
}

func TestResolveNoneIsUnbounded(t *testing.T) {
	win := Resolve(SpanNone, time.Now())
	if !win.IsZero() {
		t.Fatalf("expected unbounded window, got [%v, %v)", win.Start, win.End)
	}
	if !win.Contains(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("unbounded window should contain everything")
	}
}

func TestWindowHalfOpen(t *testing.T) {
	ref := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	win := Resolve(SpanDay, ref)

	if !win.Contains(*win.Start) {
		t.Fatal("start bound should be inclusive")
	}
	if win.Contains(*win.End) {
		t.Fatal("end bound should be exclusive")
	}
	if win.Contains(win.Start.Add(-time.Nanosecond)) {
		t.Fatal("instants before start should be excluded")
	}
}

func TestParseSpan(t *testing.T) {
	cases := map[string]Span{
		"hour":    SpanHour,
		" Day ":   SpanDay,
		"WEEK":    SpanWeek,
		"month":   SpanMonth,
		"year":    SpanYear,
		"":        SpanNone,
		"decade":  SpanNone,
		"monthly": SpanNone,
	}
	for input, want := range cases {
		if got := ParseSpan(input); got != want {
			t.Fatalf("ParseSpan(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseRef(t *testing.T) {
	loc := mustLoc(t, "Europe/Paris")

	ref := ParseRef("2024-03-15T14:30", loc)
	want := time.Date(2024, time.March, 15, 14, 30, 0, 0, loc)
	if !ref.Equal(want) {
		t.Fatalf("ParseRef = %v, want %v", ref, want)
	}

	// Malformed input falls back to now in the given location.
	before := time.Now()
	ref = ParseRef("not-a-date", loc)
	if ref.Before(before.Add(-time.Minute)) || ref.After(time.Now().Add(time.Minute)) {
		t.Fatalf("fallback ref %v not near now", ref)
	}
	if ref.Location() != loc {
		t.Fatalf("fallback ref location %v, want %v", ref.Location(), loc)
	}
}

func TestNamedWindows(t *testing.T) {
	ref := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

	lastHour := LastHour(ref)
	if !lastHour.Start.Equal(ref.Add(-time.Hour)) || !lastHour.End.Equal(ref) {
		t.Fatalf("last hour window [%v, %v)", lastHour.Start, lastHour.End)
	}

	yesterday := Yesterday(ref)
	wantStart := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !yesterday.Start.Equal(wantStart) {
		t.Fatalf("yesterday start %v, want %v", yesterday.Start, wantStart)
	}
	if !yesterday.End.Equal(Today(ref).Start.UTC()) {
		t.Fatalf("yesterday should end where today starts")
	}

	if !AllTime().IsZero() {
		t.Fatal("all-time window should be unbounded")
	}
}
