package qparse

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateReducer is one step of a date pipeline, e.g. snapping to a day
// boundary.
type DateReducer func(time.Time) time.Time

var (
	datePrefixPattern  = regexp.MustCompile(`^\d{4}[-/.]\d{1,2}[-/.]\d{1,2}`)
	epochMillisPattern = regexp.MustCompile(`^-?\d+$`)

	// Layouts tried in order by ToDate. Single-digit month, day and hour
	// fields accept two digits as well.
	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-1-2T15:04:05",
		"2006-1-2 15:04:05",
		"2006/1/2 15:04:05",
		"2006.1.2 15:04:05",
		"2006-1-2T15:04",
		"2006-1-2 15:04",
		"2006/1/2 15:04",
		"2006-1-2",
		"2006/1/2",
		"2006.1.2",
	}
)

// CouldBeDate is a cheap pre-check run before ToDate: text must start with
// a year-month-day triple or consist only of digits (epoch milliseconds).
func CouldBeDate(text string) bool {
	text = strings.TrimSpace(text)
	return datePrefixPattern.MatchString(text) || epochMillisPattern.MatchString(text)
}

// ToDate parses text as a date in loc (time.Local when nil). All-digit text
// is read as milliseconds since the Unix epoch.
func ToDate(text string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	text = strings.TrimSpace(text)

	if epochMillisPattern.MatchString(text) {
		ms, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).In(loc), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfDay snaps t to 00:00:00 of its day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay snaps t to the last nanosecond of its day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func ToDateString(t time.Time) string {
	return t.Format(DateLayout)
}

func ToDatetimeString(t time.Time) string {
	return t.Format(DatetimeLayout)
}

// Compose applies reducers left to right.
func Compose(reducers ...DateReducer) DateReducer {
	reducers = slices.Clone(reducers)
	return func(t time.Time) time.Time {
		for _, reduce := range reducers {
			if reduce != nil {
				t = reduce(t)
			}
		}
		return t
	}
}

// Date parses text that CouldBeDate in the local time zone and runs the
// result through reducers. Lists are always rejected.
func Date(reducers ...DateReducer) Coercer[time.Time] {
	return DateIn(nil, reducers...)
}

// DateIn is Date with an explicit time zone.
func DateIn(loc *time.Location, reducers ...DateReducer) Coercer[time.Time] {
	reduce := Compose(reducers...)
	return func(v Value) (time.Time, bool) {
		s, ok := v.Text()
		if !ok || !CouldBeDate(s) {
			return time.Time{}, false
		}
		t, ok := ToDate(s, loc)
		if !ok {
			return time.Time{}, false
		}
		return reduce(t), true
	}
}

// DateFormat is Date followed by rendering the result with layout.
func DateFormat(layout string, reducers ...DateReducer) Coercer[string] {
	return Then(Date(reducers...), func(t time.Time) string {
		return t.Format(layout)
	})
}

// DatePattern renders the reduced date as YYYY-MM-DD.
func DatePattern(reducers ...DateReducer) Coercer[string] {
	return Then(Date(reducers...), ToDateString)
}

// DatetimePattern renders the reduced date as YYYY-MM-DD HH:mm:ss.
func DatetimePattern(reducers ...DateReducer) Coercer[string] {
	return Then(Date(reducers...), ToDatetimeString)
}
