package core

import (
	"strings"
	"time"
)

// Period names one of the reporting windows that end at "now".
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// TimestampLayout is the on-disk encoding of add_date and update_date.
const TimestampLayout = "2006-01-02 15:04:05"

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", ErrInvalidPeriod
	}
	return p, nil
}

// IsValid reports whether p is a known period.
func (p Period) IsValid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// Range returns the window for p ending at now. Boundaries are computed in
// now's location.
func (p Period) Range(now time.Time) (DateRange, error) {
	y, m, d := now.Date()
	loc := now.Location()

	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case PeriodWeek:
		// Weekday is Sunday=0; shift so Monday=0.
		offset := (int(now.Weekday()) + 6) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return DateRange{}, ErrInvalidPeriod
	}

	return DateRange{Start: start, End: now}, nil
}

// Length is End - Start.
func (r DateRange) Length() time.Duration {
	return r.End.Sub(r.Start)
}

// Previous returns the window of identical length that ends one second
// before r starts. Timestamps are stored with second precision, so the two
// windows never overlap.
func (r DateRange) Previous() DateRange {
	return DateRange{
		Start: r.Start.Add(-r.Length()),
		End:   r.Start.Add(-time.Second),
	}
}

// Contains reports whether t falls inside the inclusive window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// FormatTimestamp encodes t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// ParseTimestamp decodes a stored timestamp as local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
