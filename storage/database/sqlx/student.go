package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/student"
)

const studentColumns = `s.id, s.full_name, s.guardian, s.lesson_type, s.monthly_fee, s.due_day, s.contract_start,
	s.contract_end, s.contract_months, s.plan_id, s.active, s.phone, s.notes, s.created_at, s.updated_at`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO students (full_name, guardian, lesson_type, monthly_fee, due_day, contract_start,
			contract_end, contract_months, plan_id, active, phone, notes, created_at, updated_at)
		VALUES (:full_name, :guardian, :lesson_type, :monthly_fee, :due_day, :contract_start,
			:contract_end, :contract_months, :plan_id, :active, :phone, :notes, :created_at, :updated_at)
		RETURNING id`, s)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	s.ID = id
	return s, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int) (student.Student, error) {
	var s student.Student
	err := repo.db.GetContext(ctx, &s, "SELECT "+studentColumns+" FROM students s WHERE s.id = $1", id)
	if err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "getting student")
	}
	return s, nil
}

func (repo studentRepository) StudentExists(ctx context.Context, id int) (bool, error) {
	ok, err := exists(ctx, repo.db, "SELECT 1 FROM students WHERE id = $1", id)
	return ok, errors.Wrap(err, "checking student")
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var conds conditions
	if filter.Active != nil {
		conds.add("s.active = ?", *filter.Active)
	}
	if filter.LessonType != "" {
		conds.add("s.lesson_type = ?", filter.LessonType)
	}
	q := "SELECT " + studentColumns + " FROM students s" + conds.where() + " ORDER BY s.full_name, s.id"

	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, repo.db.Rebind(q), conds.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	err := updateOne(ctx, repo.db, `
		UPDATE students SET full_name = :full_name, guardian = :guardian, lesson_type = :lesson_type,
			monthly_fee = :monthly_fee, due_day = :due_day, contract_start = :contract_start,
			contract_end = :contract_end, contract_months = :contract_months, plan_id = :plan_id,
			active = :active, phone = :phone, notes = :notes, updated_at = :updated_at
		WHERE id = :id`, s, student.ErrNotFound)
	if err != nil {
		if err == student.ErrNotFound {
			return student.Student{}, err
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return s, nil
}

func (repo studentRepository) DeactivateStudent(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(
		ctx, "UPDATE students SET active = false, updated_at = $2 WHERE id = $1", id, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "deactivating student")
	}
	return checkAffected(res, student.ErrNotFound)
}

// QueryLastPayments aggregates the latest payment of every student within a single statement.
func (repo studentRepository) QueryLastPayments(ctx context.Context, cutoff time.Time) ([]student.LastPayment, error) {
	rows := make([]student.LastPayment, 0)
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+studentColumns+`, lp.last_paid_on
		FROM students s
		LEFT JOIN (
			SELECT student_id, MAX(paid_on) AS last_paid_on FROM payments GROUP BY student_id
		) lp ON lp.student_id = s.id
		WHERE s.active AND (lp.last_paid_on IS NULL OR lp.last_paid_on < $1)
		ORDER BY s.full_name, s.id`,
		calendar.DateOf(cutoff),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying last payments")
	}
	return rows, nil
}
