package period

import "time"

// Date is a calendar date expressed in a particular calendar system.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Calendar converts instants into dates of a calendar system. Period labels
// are derived from these dates, so a non-Gregorian calendar yields labels in
// its own year and month numbering.
type Calendar interface {
	Name() string
	FromTime(t time.Time) Date
	// ToTime returns the instant of the given calendar date at midnight UTC.
	ToTime(d Date) time.Time
}

// Gregorian is the ISO 8601 calendar.
type Gregorian struct{}

func (Gregorian) Name() string { return "iso8601" }

func (Gregorian) FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

func (Gregorian) ToTime(d Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}
