package inmemdb

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/aquaflow/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[p.StudentID]; !ok {
		return payment.Payment{}, payment.ErrStudentNotFound
	}
	p.ID = repo.db.nextID("payments")
	repo.db.payments[p.ID] = p
	return p, nil
}

func (repo *paymentRepository) GetPayment(_ context.Context, id int) (payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.payments[id]; ok {
		return p, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if filter.StudentID > 0 && p.StudentID != filter.StudentID {
			continue
		}
		if !filter.From.IsZero() && p.PaidOn.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.PaidOn.After(filter.To) {
			continue
		}
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaidOn.Equal(payments[j].PaidOn) {
			return payments[i].PaidOn.After(payments[j].PaidOn)
		}
		return payments[i].ID > payments[j].ID
	})
	return payments, nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.payments[p.ID]; !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	if _, ok := repo.db.students[p.StudentID]; !ok {
		return payment.Payment{}, payment.ErrStudentNotFound
	}
	repo.db.payments[p.ID] = p
	return p, nil
}

func (repo *paymentRepository) DeletePayment(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.payments[id]; !ok {
		return payment.ErrNotFound
	}
	delete(repo.db.payments, id)
	return nil
}

func (repo *paymentRepository) HasPaymentForMonth(_ context.Context, studentID int, referenceMonth string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.payments {
		if p.StudentID == studentID && p.ReferenceMonth == referenceMonth {
			return true, nil
		}
	}
	return false, nil
}

func (repo *paymentRepository) MonthlyReport(_ context.Context, filter payment.ReportFilter) ([]payment.ReportLine, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	month, exact := filter.ReferenceMonth()
	yearPrefix := strconv.Itoa(filter.Year) + "-"

	type key struct{ month, method string }
	byKey := make(map[key]*payment.ReportLine)
	for _, p := range repo.db.payments {
		if exact && p.ReferenceMonth != month {
			continue
		}
		if !exact && filter.Year > 0 && !strings.HasPrefix(p.ReferenceMonth, yearPrefix) {
			continue
		}
		k := key{p.ReferenceMonth, p.Method}
		line, ok := byKey[k]
		if !ok {
			line = &payment.ReportLine{ReferenceMonth: p.ReferenceMonth, Method: p.Method}
			byKey[k] = line
		}
		line.Count++
		line.Total = line.Total.Add(p.Amount)
	}

	lines := make([]payment.ReportLine, 0, len(byKey))
	for _, line := range byKey {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ReferenceMonth != lines[j].ReferenceMonth {
			return lines[i].ReferenceMonth > lines[j].ReferenceMonth
		}
		return lines[i].Method < lines[j].Method
	})
	return lines, nil
}
