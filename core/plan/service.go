package plan

import (
	"context"

	"github.com/trezcool/aquaflow/core"
)

var ErrNotFound = core.NewNotFoundError("Plano não encontrado")

type (
	Repository interface {
		CreatePlan(ctx context.Context, p Plan) (Plan, error)
		GetPlan(ctx context.Context, id int) (Plan, error)
		PlanExists(ctx context.Context, id int) (bool, error)
		// QueryPlans returns plans ordered by monthly price; a nil active matches all.
		QueryPlans(ctx context.Context, active *bool) ([]Plan, error)
		UpdatePlan(ctx context.Context, p Plan) (Plan, error)
		DeactivatePlan(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewPlan) (Plan, error) {
	p := Plan{
		Name:           np.Name,
		Description:    np.Description,
		MonthlyPrice:   np.MonthlyPrice,
		LessonsPerWeek: np.LessonsPerWeek,
		LessonMinutes:  np.LessonMinutes,
		FreeAccess:     np.FreeAccess,
		AllowsMakeup:   np.AllowsMakeup == nil || *np.AllowsMakeup,
		GraceDays:      DefaultGraceDays,
		Active:         true,
	}
	if np.GraceDays != nil {
		p.GraceDays = *np.GraceDays
	}
	return svc.repo.CreatePlan(ctx, p)
}

func (svc *Service) Get(ctx context.Context, id int) (Plan, error) {
	return svc.repo.GetPlan(ctx, id)
}

func (svc *Service) Query(ctx context.Context, active *bool) ([]Plan, error) {
	return svc.repo.QueryPlans(ctx, active)
}

func (svc *Service) Update(ctx context.Context, id int, up UpdatePlan) (Plan, error) {
	orig, err := svc.repo.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	return svc.repo.UpdatePlan(ctx, up.Apply(orig))
}

// Deactivate soft-deletes a plan: students keep their reference to it.
func (svc *Service) Deactivate(ctx context.Context, id int) error {
	return svc.repo.DeactivatePlan(ctx, id)
}
