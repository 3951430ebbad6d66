package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/payment"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paidOn(studentID int, y int, m time.Month, d int) payment.Payment {
	return payment.Payment{StudentID: studentID, PaidOn: calendar.NewDate(y, m, d)}
}

func TestIsDelinquent(t *testing.T) {
	ref := day(2024, time.March, 31)

	tests := []struct {
		name          string
		payments      []payment.Payment
		wantDelinq    bool
		wantNever     bool
		wantDaysSince int
	}{
		{
			name:          "never paid",
			payments:      nil,
			wantDelinq:    true,
			wantNever:     true,
			wantDaysSince: -1,
		},
		{
			name:          "only other students paid",
			payments:      []payment.Payment{paidOn(2, 2024, time.March, 30)},
			wantDelinq:    true,
			wantNever:     true,
			wantDaysSince: -1,
		},
		{
			name:          "paid 45 days ago",
			payments:      []payment.Payment{paidOn(1, 2024, time.February, 15)},
			wantDelinq:    false,
			wantDaysSince: 45,
		},
		{
			name:          "paid 46 days ago",
			payments:      []payment.Payment{paidOn(1, 2024, time.February, 14)},
			wantDelinq:    true,
			wantDaysSince: 46,
		},
		{
			name: "latest payment wins",
			payments: []payment.Payment{
				paidOn(1, 2023, time.December, 1),
				paidOn(1, 2024, time.March, 1),
				paidOn(1, 2024, time.January, 10),
			},
			wantDelinq:    false,
			wantDaysSince: 30,
		},
		{
			name:          "future payment",
			payments:      []payment.Payment{paidOn(1, 2024, time.April, 5)},
			wantDelinq:    false,
			wantDaysSince: -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := IsDelinquent(1, tt.payments, ref)
			assert.Equal(t, tt.wantDelinq, status.Delinquent)
			assert.Equal(t, tt.wantNever, status.NeverPaid)
			assert.Equal(t, tt.wantDaysSince, status.DaysSinceLastPayment)
			if tt.wantNever {
				assert.True(t, status.LastPayment.IsZero())
			}
		})
	}
}

func TestListingCutoff(t *testing.T) {
	assert.Equal(t, "2024-02-15", ListingCutoff(day(2024, time.March, 31)).String())
}

func TestCycleDaysLate(t *testing.T) {
	assert.Equal(t, 0, CycleDaysLate(10, day(2024, time.March, 5)))
	assert.Equal(t, 0, CycleDaysLate(10, day(2024, time.March, 10)))
	assert.Equal(t, 4, CycleDaysLate(10, day(2024, time.March, 14)))
	// due day 31 falls on Feb 29 in a leap year
	assert.Equal(t, 0, CycleDaysLate(31, day(2024, time.February, 29)))
}

func TestReminderFor(t *testing.T) {
	tests := []struct {
		name    string
		dueDay  int
		ref     time.Time
		want    Reminder
		wantDue time.Time
	}{
		{"3 days before", 10, day(2024, time.March, 7), ReminderDueSoon, day(2024, time.March, 10)},
		{"2 days before", 10, day(2024, time.March, 8), ReminderNone, time.Time{}},
		{"on due date", 10, day(2024, time.March, 10), ReminderNone, time.Time{}},
		{"5 days after", 10, day(2024, time.March, 15), ReminderOverdue, day(2024, time.March, 10)},
		{"6 days after", 10, day(2024, time.March, 16), ReminderNone, time.Time{}},
		{"short month clamp", 31, day(2023, time.February, 25), ReminderDueSoon, day(2023, time.February, 28)},
		{"next month", 1, day(2024, time.March, 29), ReminderDueSoon, day(2024, time.April, 1)},
		{"overdue from last month", 28, day(2024, time.April, 2), ReminderOverdue, day(2024, time.March, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, due := ReminderFor(tt.dueDay, tt.ref, DefaultDueSoonDays, DefaultOverdueDays)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.wantDue.Equal(due), "due = %v; want %v", due, tt.wantDue)
		})
	}
}

func TestReminder_String(t *testing.T) {
	assert.Equal(t, "none", ReminderNone.String())
	assert.Equal(t, "due_soon", ReminderDueSoon.String())
	assert.Equal(t, "overdue", ReminderOverdue.String())
}
