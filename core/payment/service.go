package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("Pagamento não encontrado")
	ErrStudentNotFound = core.NewNotFoundError("Aluno não encontrado")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		GetPayment(ctx context.Context, id int) (Payment, error)
		// QueryPayments returns matching payments, most recent payment date first.
		QueryPayments(ctx context.Context, filter QueryFilter) ([]Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
		DeletePayment(ctx context.Context, id int) error
		HasPaymentForMonth(ctx context.Context, studentID int, referenceMonth string) (bool, error)
		// MonthlyReport groups payments by reference month (newest first) and method.
		MonthlyReport(ctx context.Context, filter ReportFilter) ([]ReportLine, error)
	}

	// StudentRepository is the part of the student store payments depend on.
	StudentRepository interface {
		StudentExists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo     Repository
		students StudentRepository
	}
)

func NewService(repo Repository, students StudentRepository) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) checkStudent(ctx context.Context, studentID int) error {
	exists, err := svc.students.StudentExists(ctx, studentID)
	if err != nil {
		return errors.Wrap(err, "checking student")
	}
	if !exists {
		return ErrStudentNotFound
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, np NewPayment) (Payment, error) {
	if err := svc.checkStudent(ctx, np.StudentID); err != nil {
		return Payment{}, err
	}
	p := Payment{
		StudentID:      np.StudentID,
		Amount:         np.Amount,
		PaidOn:         np.PaidOn,
		ReferenceMonth: np.ReferenceMonth,
		Method:         np.Method,
		Notes:          np.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	return svc.repo.CreatePayment(ctx, p)
}

func (svc *Service) Get(ctx context.Context, id int) (Payment, error) {
	return svc.repo.GetPayment(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

// QueryByStudent lists a student's payments, most recent first.
func (svc *Service) QueryByStudent(ctx context.Context, studentID int) ([]Payment, error) {
	if err := svc.checkStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryPayments(ctx, QueryFilter{StudentID: studentID})
}

func (svc *Service) Update(ctx context.Context, id int, up UpdatePayment) (Payment, error) {
	orig, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if up.StudentID != nil && *up.StudentID != orig.StudentID {
		if err := svc.checkStudent(ctx, *up.StudentID); err != nil {
			return Payment{}, err
		}
	}
	return svc.repo.UpdatePayment(ctx, up.Apply(orig))
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeletePayment(ctx, id)
}

func (svc *Service) HasPaidMonth(ctx context.Context, studentID int, referenceMonth string) (bool, error) {
	return svc.repo.HasPaymentForMonth(ctx, studentID, referenceMonth)
}

func (svc *Service) MonthlyReport(ctx context.Context, filter ReportFilter) ([]ReportLine, error) {
	return svc.repo.MonthlyReport(ctx, filter)
}
