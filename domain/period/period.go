package period

import (
	"fmt"
	"strings"
	"time"

	"hisoutlier/domain/core"
)

// Type is a named period type able to label a period from its start date.
type Type struct {
	Name  string
	label func(cal Calendar, start time.Time) string
}

// Types lists every supported period type, most frequent first.
var Types = []Type{
	{"Daily", daily},
	{"Weekly", weekly(time.Monday, "W")},
	{"WeeklyWednesday", weekly(time.Wednesday, "WedW")},
	{"WeeklyThursday", weekly(time.Thursday, "ThuW")},
	{"WeeklySaturday", weekly(time.Saturday, "SatW")},
	{"WeeklySunday", weekly(time.Sunday, "SunW")},
	{"BiWeekly", biWeekly},
	{"Monthly", monthly},
	{"BiMonthly", biMonthly},
	{"Quarterly", quarterly},
	{"SixMonthly", sixMonthly},
	{"SixMonthlyApril", sixMonthlyApril},
	{"SixMonthlyNov", sixMonthlyNov},
	{"Yearly", yearly},
	{"FinancialApril", financial(4, "April")},
	{"FinancialJuly", financial(7, "July")},
	{"FinancialOct", financial(10, "Oct")},
	{"FinancialNov", financial(11, "Nov")},
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(Types))
	for _, t := range Types {
		m[strings.ToLower(t.Name)] = t
	}
	return m
}()

// TypeByName looks a period type up ignoring case.
func TypeByName(name string) (Type, bool) {
	t, ok := typesByName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Formatter derives ISO period labels in a given calendar.
type Formatter struct {
	cal Calendar
}

// NewFormatter creates a formatter; a nil calendar means Gregorian.
func NewFormatter(cal Calendar) *Formatter {
	if cal == nil {
		cal = Gregorian{}
	}
	return &Formatter{cal: cal}
}

// ISOPeriod returns the label of the period of the named type that starts at
// start, e.g. "202306", "2023Q2", "2023W14", "2022AprilS2".
func (f *Formatter) ISOPeriod(periodType string, start time.Time) (string, error) {
	t, ok := TypeByName(periodType)
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownPeriodType, periodType)
	}
	return t.label(f.cal, start), nil
}

func daily(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// weekNumber returns the week-based year and week number of the week that
// starts on weekday first and contains start. Week 1 is the week holding the
// fourth day of the year, which for Monday weeks is ISO 8601 numbering.
func weekNumber(cal Calendar, start time.Time, first time.Weekday) (int, int) {
	shift := (int(start.Weekday()) - int(first) + 7) % 7
	weekStart := start.AddDate(0, 0, -shift)
	anchor := weekStart.AddDate(0, 0, 3)

	d := cal.FromTime(anchor)
	yearStart := cal.ToTime(Date{Year: d.Year, Month: 1, Day: 1})
	anchorDay := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	dayOfYear := int(anchorDay.Sub(yearStart).Hours()/24) + 1
	return d.Year, (dayOfYear-1)/7 + 1
}

func weekly(first time.Weekday, marker string) func(Calendar, time.Time) string {
	return func(cal Calendar, start time.Time) string {
		year, week := weekNumber(cal, start, first)
		return fmt.Sprintf("%d%s%d", year, marker, week)
	}
}

func biWeekly(cal Calendar, start time.Time) string {
	year, week := weekNumber(cal, start, time.Monday)
	return fmt.Sprintf("%dBiW%d", year, (week-1)/2+1)
}

func monthly(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	return fmt.Sprintf("%d%02d", d.Year, d.Month)
}

func biMonthly(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	return fmt.Sprintf("%d%02dB", d.Year, (d.Month-1)/2+1)
}

func quarterly(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	return fmt.Sprintf("%dQ%d", d.Year, (d.Month-1)/3+1)
}

func sixMonthly(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	return fmt.Sprintf("%dS%d", d.Year, (d.Month-1)/6+1)
}

// April-based half years: Apr-Sep is S1, Oct-Mar is S2 of the year it starts.
func sixMonthlyApril(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	switch {
	case d.Month >= 4 && d.Month <= 9:
		return fmt.Sprintf("%dAprilS1", d.Year)
	case d.Month >= 10:
		return fmt.Sprintf("%dAprilS2", d.Year)
	default:
		return fmt.Sprintf("%dAprilS2", d.Year-1)
	}
}

// November-based half years: Nov-Apr is S1 of the year it ends, May-Oct is S2.
func sixMonthlyNov(cal Calendar, start time.Time) string {
	d := cal.FromTime(start)
	switch {
	case d.Month >= 11:
		return fmt.Sprintf("%dNovS1", d.Year+1)
	case d.Month <= 4:
		return fmt.Sprintf("%dNovS1", d.Year)
	default:
		return fmt.Sprintf("%dNovS2", d.Year)
	}
}

func yearly(cal Calendar, start time.Time) string {
	return fmt.Sprintf("%d", cal.FromTime(start).Year)
}

func financial(firstMonth int, suffix string) func(Calendar, time.Time) string {
	return func(cal Calendar, start time.Time) string {
		d := cal.FromTime(start)
		year := d.Year
		if d.Month < firstMonth {
			year--
		}
		return fmt.Sprintf("%d%s", year, suffix)
	}
}
