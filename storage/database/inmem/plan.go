package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/aquaflow/core/plan"
)

type planRepository struct {
	db *DB
}

var _ plan.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *DB) *planRepository {
	return &planRepository{db: db}
}

func (repo *planRepository) CreatePlan(_ context.Context, p plan.Plan) (plan.Plan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = repo.db.nextID("plans")
	repo.db.plans[p.ID] = p
	return p, nil
}

func (repo *planRepository) GetPlan(_ context.Context, id int) (plan.Plan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.plans[id]; ok {
		return p, nil
	}
	return plan.Plan{}, plan.ErrNotFound
}

func (repo *planRepository) PlanExists(_ context.Context, id int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.plans[id]
	return ok, nil
}

func (repo *planRepository) QueryPlans(_ context.Context, active *bool) ([]plan.Plan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	plans := make([]plan.Plan, 0, len(repo.db.plans))
	for _, p := range repo.db.plans {
		if active != nil && p.Active != *active {
			continue
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].MonthlyPrice.Equal(plans[j].MonthlyPrice) {
			return plans[i].MonthlyPrice.LessThan(plans[j].MonthlyPrice)
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, nil
}

func (repo *planRepository) UpdatePlan(_ context.Context, p plan.Plan) (plan.Plan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.plans[p.ID]; !ok {
		return plan.Plan{}, plan.ErrNotFound
	}
	repo.db.plans[p.ID] = p
	return p, nil
}

func (repo *planRepository) DeactivatePlan(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p, ok := repo.db.plans[id]
	if !ok {
		return plan.ErrNotFound
	}
	p.Active = false
	repo.db.plans[id] = p
	return nil
}
