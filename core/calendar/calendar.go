// Package calendar holds the date arithmetic shared by billing and notifications.
// All functions work on calendar dates: the clock part of a time.Time is ignored.
package calendar

import (
	"fmt"
	"time"
)

const (
	minDueDay = 1
	maxDueDay = 31
)

// Truncate returns the midnight of t's date, in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDueDay forces a due day into [1, 31].
func ClampDueDay(dueDay int) int {
	if dueDay < minDueDay {
		return minDueDay
	}
	if dueDay > maxDueDay {
		return maxDueDay
	}
	return dueDay
}

// EffectiveDueDate returns the due date of ref's month: dueDay, or the month's last day when
// the month is shorter (dueDay 31 in February falls on the 28th or 29th).
func EffectiveDueDate(dueDay int, ref time.Time) time.Time {
	y, m, _ := ref.Date()
	day := ClampDueDay(dueDay)
	if last := LastDayOfMonth(y, m); day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, ref.Location())
}

// DaysBetween returns the signed number of whole calendar days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// Month is a billing reference month, rendered as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

const monthLayout = "2006-01"

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil || len(s) != len(monthLayout) {
		return Month{}, fmt.Errorf("invalid reference month %q", s)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}
