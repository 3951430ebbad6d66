// Package billing classifies students by payment standing.
//
// Two independent rules live here and must not be merged:
//   - the listing rule: a student is delinquent when their most recent payment is older than
//     ListingGraceDays (or they never paid). It drives the delinquents report.
//   - the reminder rule: reminders fire relative to the student's due day in the current month,
//     a few days before it (due soon) and a few days after it (overdue).
package billing

import (
	"time"

	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/payment"
)

// ListingGraceDays is how old a student's last payment may be before they are listed as delinquent.
const ListingGraceDays = 45

const (
	DefaultDueSoonDays = 3
	DefaultOverdueDays = 5
)

// Status is the outcome of the listing rule for one student.
type Status struct {
	Delinquent bool
	NeverPaid  bool
	// LastPayment is zero when NeverPaid.
	LastPayment calendar.Date
	// DaysSinceLastPayment is -1 when NeverPaid.
	DaysSinceLastPayment int
}

// IsDelinquent applies the listing rule to a student given any list of payments; payments of
// other students are ignored. Payments recorded with a future date still count as the latest payment.
func IsDelinquent(studentID int, payments []payment.Payment, ref time.Time) Status {
	var last calendar.Date
	for _, p := range payments {
		if p.StudentID != studentID {
			continue
		}
		if last.IsZero() || p.PaidOn.After(last) {
			last = p.PaidOn
		}
	}
	return StatusFromLastPayment(last, ref)
}

// StatusFromLastPayment applies the listing rule when the latest payment date is already known
// (e.g. aggregated by the database). A zero date means the student never paid.
func StatusFromLastPayment(last calendar.Date, ref time.Time) Status {
	if last.IsZero() {
		return Status{Delinquent: true, NeverPaid: true, DaysSinceLastPayment: -1}
	}
	days := calendar.DaysBetween(last.Time, ref)
	return Status{
		Delinquent:           days > ListingGraceDays,
		LastPayment:          last,
		DaysSinceLastPayment: days,
	}
}

// ListingCutoff is the date a last payment must not precede for the student to be in good standing.
func ListingCutoff(ref time.Time) calendar.Date {
	return calendar.DateOf(calendar.AddDays(ref, -ListingGraceDays))
}

// CycleDueDate returns the effective due date of ref's month.
func CycleDueDate(dueDay int, ref time.Time) time.Time {
	return calendar.EffectiveDueDate(dueDay, ref)
}

// CycleDaysLate returns how many days ref is past this month's due date, floored at 0.
func CycleDaysLate(dueDay int, ref time.Time) int {
	days := calendar.DaysBetween(CycleDueDate(dueDay, ref), ref)
	if days < 0 {
		return 0
	}
	return days
}

type Reminder int

const (
	ReminderNone Reminder = iota
	ReminderDueSoon
	ReminderOverdue
)

func (r Reminder) String() string {
	switch r {
	case ReminderDueSoon:
		return "due_soon"
	case ReminderOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// ReminderFor tells which reminder, if any, is due on ref for a student with the given due day,
// and the due date it refers to. A due-soon reminder fires exactly dueSoonDays before an effective
// due date, an overdue one exactly overdueDays after it, so each goes out once per cycle. The due
// date may fall in the month next to ref's (due day 1 is "due soon" on the last days of a month).
func ReminderFor(dueDay int, ref time.Time, dueSoonDays, overdueDays int) (Reminder, time.Time) {
	if ahead := calendar.Truncate(calendar.AddDays(ref, dueSoonDays)); CycleDueDate(dueDay, ahead).Equal(ahead) {
		return ReminderDueSoon, ahead
	}
	if behind := calendar.Truncate(calendar.AddDays(ref, -overdueDays)); CycleDueDate(dueDay, behind).Equal(behind) {
		return ReminderOverdue, behind
	}
	return ReminderNone, time.Time{}
}
