package student

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/billing"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("Aluno não encontrado")
	ErrPlanNotFound = core.NewNotFoundError("Plano não encontrado")

	errContractDates = errors.New("data de fim do contrato não pode ser anterior à data de início")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)
		StudentExists(ctx context.Context, id int) (bool, error)
		// QueryStudents returns matching students ordered by name.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeactivateStudent(ctx context.Context, id int) error
		// QueryLastPayments returns every active student whose last payment precedes cutoff, or who
		// never paid, along with that last payment date. Ordered by name.
		// Implementations must answer with a single aggregate query.
		QueryLastPayments(ctx context.Context, cutoff time.Time) ([]LastPayment, error)
	}

	// PlanRepository is the part of the plan store students depend on.
	PlanRepository interface {
		PlanExists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo  Repository
		plans PlanRepository
		now   func() time.Time
	}
)

func NewService(repo Repository, plans PlanRepository) *Service {
	return &Service{repo: repo, plans: plans, now: time.Now}
}

func (svc *Service) checkPlan(ctx context.Context, planID int) error {
	exists, err := svc.plans.PlanExists(ctx, planID)
	if err != nil {
		return pkgerrors.Wrap(err, "checking plan")
	}
	if !exists {
		return ErrPlanNotFound
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if ns.PlanID.Valid {
		if err := svc.checkPlan(ctx, ns.PlanID.Int); err != nil {
			return Student{}, err
		}
	}
	now := svc.now().UTC()
	s := Student{
		FullName:       ns.FullName,
		Guardian:       ns.Guardian,
		LessonType:     ns.LessonType,
		MonthlyFee:     ns.MonthlyFee,
		DueDay:         ns.DueDay,
		ContractStart:  ns.ContractStart,
		ContractEnd:    ns.ContractEnd,
		ContractMonths: ns.ContractMonths,
		PlanID:         ns.PlanID,
		Active:         ns.Active == nil || *ns.Active,
		Phone:          ns.Phone,
		Notes:          ns.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *Service) Get(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Exists(ctx context.Context, id int) (bool, error) {
	return svc.repo.StudentExists(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.LessonType = core.CleanString(filter.LessonType, true /* lower */)
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	if us.PlanID != nil && (!orig.PlanID.Valid || orig.PlanID.Int != *us.PlanID) {
		if err := svc.checkPlan(ctx, *us.PlanID); err != nil {
			return Student{}, err
		}
	}
	s := us.Apply(orig)
	s.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

// Deactivate soft-deletes a student: their history is kept.
func (svc *Service) Deactivate(ctx context.Context, id int) error {
	return svc.repo.DeactivateStudent(ctx, id)
}

// Delinquents lists active students whose last payment is older than billing.ListingGraceDays,
// or who never paid, as of ref.
func (svc *Service) Delinquents(ctx context.Context, ref time.Time) ([]Delinquent, error) {
	cutoff := billing.ListingCutoff(ref)
	rows, err := svc.repo.QueryLastPayments(ctx, cutoff.Time)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying last payments")
	}

	delinquents := make([]Delinquent, 0, len(rows))
	for _, row := range rows {
		status := billing.StatusFromLastPayment(row.PaidOn, ref)
		if !status.Delinquent {
			continue
		}
		delinquents = append(delinquents, Delinquent{
			Student:              row.Student,
			LastPayment:          status.LastPayment,
			NeverPaid:            status.NeverPaid,
			DaysSinceLastPayment: status.DaysSinceLastPayment,
		})
	}
	return delinquents, nil
}
