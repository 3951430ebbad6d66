package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/plan"
)

const planColumns = `id, name, description, monthly_price, lessons_per_week, lesson_minutes, free_access,
	allows_makeup, grace_days, active`

type planRepository struct {
	db *sqlx.DB
}

var _ plan.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *sqlx.DB) *planRepository {
	return &planRepository{db: db}
}

func (repo planRepository) CreatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO plans (name, description, monthly_price, lessons_per_week, lesson_minutes, free_access,
			allows_makeup, grace_days, active)
		VALUES (:name, :description, :monthly_price, :lessons_per_week, :lesson_minutes, :free_access,
			:allows_makeup, :grace_days, :active)
		RETURNING id`, p)
	if err != nil {
		return plan.Plan{}, errors.Wrap(err, "inserting plan")
	}
	p.ID = id
	return p, nil
}

func (repo planRepository) GetPlan(ctx context.Context, id int) (plan.Plan, error) {
	var p plan.Plan
	if err := repo.db.GetContext(ctx, &p, "SELECT "+planColumns+" FROM plans WHERE id = $1", id); err != nil {
		return plan.Plan{}, trapNoRows(err, plan.ErrNotFound, "getting plan")
	}
	return p, nil
}

func (repo planRepository) PlanExists(ctx context.Context, id int) (bool, error) {
	ok, err := exists(ctx, repo.db, "SELECT 1 FROM plans WHERE id = $1", id)
	return ok, errors.Wrap(err, "checking plan")
}

func (repo planRepository) QueryPlans(ctx context.Context, active *bool) ([]plan.Plan, error) {
	var conds conditions
	if active != nil {
		conds.add("active = ?", *active)
	}
	q := "SELECT " + planColumns + " FROM plans" + conds.where() + " ORDER BY monthly_price, id"

	plans := make([]plan.Plan, 0)
	if err := repo.db.SelectContext(ctx, &plans, repo.db.Rebind(q), conds.args...); err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	return plans, nil
}

func (repo planRepository) UpdatePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	err := updateOne(ctx, repo.db, `
		UPDATE plans SET name = :name, description = :description, monthly_price = :monthly_price,
			lessons_per_week = :lessons_per_week, lesson_minutes = :lesson_minutes, free_access = :free_access,
			allows_makeup = :allows_makeup, grace_days = :grace_days, active = :active
		WHERE id = :id`, p, plan.ErrNotFound)
	if err != nil {
		if err == plan.ErrNotFound {
			return plan.Plan{}, err
		}
		return plan.Plan{}, errors.Wrap(err, "updating plan")
	}
	return p, nil
}

func (repo planRepository) DeactivatePlan(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE plans SET active = false WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deactivating plan")
	}
	return checkAffected(res, plan.ErrNotFound)
}
