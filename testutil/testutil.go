// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  null.NewString(name, name != ""),
		Username:  uname,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetRole(role)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent saves a swimming student paying 150.00 on dueDay.
func CreateStudent(t *testing.T, repo student.Repository, name string, dueDay int, active bool, phone ...string) student.Student {
	now := time.Now().UTC()
	start := calendar.DateOf(now)
	s := student.Student{
		FullName:       name,
		LessonType:     student.LessonSwimming,
		MonthlyFee:     decimal.RequireFromString("150.00"),
		DueDay:         dueDay,
		ContractStart:  start,
		ContractEnd:    calendar.DateOf(start.AddDate(0, student.DefaultContractMonths, 0)),
		ContractMonths: student.DefaultContractMonths,
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(phone) > 0 {
		s.Phone = null.StringFrom(phone[0])
	}
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreatePayment(t *testing.T, repo payment.Repository, studentID int, amount string, paidOn calendar.Date, method string) payment.Payment {
	p := payment.Payment{
		StudentID:      studentID,
		Amount:         decimal.RequireFromString(amount),
		PaidOn:         paidOn,
		ReferenceMonth: calendar.MonthOf(paidOn.Time).String(),
		Method:         method,
		CreatedAt:      time.Now().UTC(),
	}
	p, err := repo.CreatePayment(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

func CreateSlot(t *testing.T, repo schedule.Repository, weekday, startsAt string, maxCapacity int) schedule.Slot {
	s := schedule.Slot{
		Weekday:     weekday,
		StartsAt:    startsAt,
		MaxCapacity: maxCapacity,
		LessonType:  student.LessonSwimming,
	}
	s, err := repo.CreateSlot(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return s
}
