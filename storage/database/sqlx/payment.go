package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/payment"
)

const paymentColumns = "id, student_id, amount, paid_on, reference_month, method, notes, created_at"

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo paymentRepository) CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO payments (student_id, amount, paid_on, reference_month, method, notes, created_at)
		VALUES (:student_id, :amount, :paid_on, :reference_month, :method, :notes, :created_at)
		RETURNING id`, p)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return payment.Payment{}, payment.ErrStudentNotFound
		}
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	p.ID = id
	return p, nil
}

func (repo paymentRepository) GetPayment(ctx context.Context, id int) (payment.Payment, error) {
	var p payment.Payment
	err := repo.db.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE id = $1", id)
	if err != nil {
		return payment.Payment{}, trapNoRows(err, payment.ErrNotFound, "getting payment")
	}
	return p, nil
}

func (repo paymentRepository) QueryPayments(ctx context.Context, filter payment.QueryFilter) ([]payment.Payment, error) {
	var conds conditions
	if filter.StudentID > 0 {
		conds.add("student_id = ?", filter.StudentID)
	}
	if !filter.From.IsZero() {
		conds.add("paid_on >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		conds.add("paid_on <= ?", filter.To)
	}
	q := "SELECT " + paymentColumns + " FROM payments" + conds.where() + " ORDER BY paid_on DESC, id DESC"

	payments := make([]payment.Payment, 0)
	if err := repo.db.SelectContext(ctx, &payments, repo.db.Rebind(q), conds.args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

func (repo paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	err := updateOne(ctx, repo.db, `
		UPDATE payments SET student_id = :student_id, amount = :amount, paid_on = :paid_on,
			reference_month = :reference_month, method = :method, notes = :notes
		WHERE id = :id`, p, payment.ErrNotFound)
	if err != nil {
		switch {
		case err == payment.ErrNotFound:
			return payment.Payment{}, err
		case pgCode(err) == foreignKeyViolation:
			return payment.Payment{}, payment.ErrStudentNotFound
		}
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	return p, nil
}

func (repo paymentRepository) DeletePayment(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM payments WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return checkAffected(res, payment.ErrNotFound)
}

func (repo paymentRepository) HasPaymentForMonth(ctx context.Context, studentID int, referenceMonth string) (bool, error) {
	ok, err := exists(
		ctx, repo.db,
		"SELECT 1 FROM payments WHERE student_id = $1 AND reference_month = $2",
		studentID, referenceMonth,
	)
	return ok, errors.Wrap(err, "checking monthly payment")
}

func (repo paymentRepository) MonthlyReport(ctx context.Context, filter payment.ReportFilter) ([]payment.ReportLine, error) {
	var conds conditions
	if month, ok := filter.ReferenceMonth(); ok {
		conds.add("reference_month = ?", month)
	} else if filter.Year > 0 {
		conds.add("reference_month LIKE ?", fmt.Sprintf("%04d-%%", filter.Year))
	}
	q := `SELECT reference_month, method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM payments` + conds.where() + `
		GROUP BY reference_month, method
		ORDER BY reference_month DESC, method`

	lines := make([]payment.ReportLine, 0)
	if err := repo.db.SelectContext(ctx, &lines, repo.db.Rebind(q), conds.args...); err != nil {
		return nil, errors.Wrap(err, "querying monthly report")
	}
	return lines, nil
}
