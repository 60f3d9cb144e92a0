package dateutil

import (
	"math"
	"time"
)

// StartOfDay truncates a time to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameOrAfterDay reports whether a falls on or after the calendar day of b
func SameOrAfterDay(a, b time.Time) bool {
	return !StartOfDay(a).Before(StartOfDay(b))
}

// WithinDays reports whether t lies in the inclusive day range [start, end]
func WithinDays(t, start, end time.Time) bool {
	d := StartOfDay(t)
	return !d.Before(StartOfDay(start)) && !d.After(StartOfDay(end))
}

// IsLeapYear checks if a year is a leap year
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the month containing t
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// DaysBetween returns the whole days from start to end, rounding partial days up.
// Returns 0 when end is not after start.
func DaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// MonthsBetween returns the number of whole months from start to end
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AnniversaryIn returns the anniversary of anchor's month/day in the given year.
// A Feb 29 anchor falls on Feb 28 in non-leap years.
func AnniversaryIn(anchor time.Time, year int) time.Time {
	day := anchor.Day()
	if anchor.Month() == time.February && day == 29 && !IsLeapYear(year) {
		day = 28
	}
	return time.Date(year, anchor.Month(), day, 0, 0, 0, 0, anchor.Location())
}

// AnniversaryYear returns the calendar year in which the anniversary period
// containing date began. Dates before the anchor's month/day belong to the
// period that started the previous year.
func AnniversaryYear(date, anchor time.Time) int {
	year := date.Year()
	if StartOfDay(date).Before(AnniversaryIn(anchor, year).In(date.Location())) {
		return year - 1
	}
	return year
}

// AnniversaryBounds returns [start, end) of the anniversary period that began in year
func AnniversaryBounds(year int, anchor time.Time) (time.Time, time.Time) {
	return AnniversaryIn(anchor, year), AnniversaryIn(anchor, year+1)
}
