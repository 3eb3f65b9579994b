package dateutil

import (
	"fmt"
	"time"
)

// Age calculates the age at a given date
func Age(birthDate, atDate time.Time) int {
	age := atDate.Year() - birthDate.Year()
	if atDate.Month() < birthDate.Month() ||
		(atDate.Month() == birthDate.Month() && atDate.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// AddMonths adds months to a date, clamping the day to the end of the target month
// (Jan 31 + 1 month = Feb 28/29).
func AddMonths(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m, 1, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
	target := first.AddDate(0, months, 0)
	if last := DaysInMonth(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// MonthsBetween returns the number of whole calendar months from one date to another.
// Day of month is ignored.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// IsLeapYear checks if a year is a leap year
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Quarter returns the calendar quarter (1-4) of a date
func Quarter(date time.Time) int {
	return (int(date.Month())-1)/3 + 1
}

// MonthKey formats a date as YYYY-MM
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}

// QuarterKey formats a date as YYYY-Q{n}
func QuarterKey(date time.Time) string {
	return fmt.Sprintf("%d-Q%d", date.Year(), Quarter(date))
}

// YearKey formats a date as YYYY
func YearKey(date time.Time) string {
	return fmt.Sprintf("%d", date.Year())
}

// SameMonth reports whether two dates fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
