package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core/instructor"
)

const instructorColumns = "id, name, email, cpf, phone, specialty, is_active"

type instructorRepository struct {
	db *sqlx.DB
}

var _ instructor.Repository = (*instructorRepository)(nil) // interface compliance check

func NewInstructorRepository(db *sqlx.DB) *instructorRepository {
	return &instructorRepository{db: db}
}

func (repo instructorRepository) CheckUniqueness(ctx context.Context, email, cpf string, excluded *instructor.Instructor) error {
	excludedID := 0
	if excluded != nil {
		excludedID = excluded.ID
	}

	var taken []struct {
		Email string `db:"email"`
		CPF   string `db:"cpf"`
	}
	err := repo.db.SelectContext(
		ctx, &taken,
		"SELECT email, cpf FROM instructors WHERE (email = $1 OR cpf = $2) AND id <> $3",
		email, cpf, excludedID,
	)
	if err != nil {
		return errors.Wrap(err, "checking instructor uniqueness")
	}
	for _, i := range taken {
		if i.Email == email {
			return instructor.ErrEmailExists
		}
	}
	if len(taken) > 0 {
		return instructor.ErrCPFExists
	}
	return nil
}

func (repo instructorRepository) CreateInstructor(ctx context.Context, i instructor.Instructor) (instructor.Instructor, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO instructors (name, email, cpf, phone, specialty, is_active)
		VALUES (:name, :email, :cpf, :phone, :specialty, :is_active)
		RETURNING id`, i)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return instructor.Instructor{}, instructor.ErrEmailExists
		}
		return instructor.Instructor{}, errors.Wrap(err, "inserting instructor")
	}
	i.ID = id
	return i, nil
}

func (repo instructorRepository) GetInstructor(ctx context.Context, id int) (instructor.Instructor, error) {
	var i instructor.Instructor
	err := repo.db.GetContext(ctx, &i, "SELECT "+instructorColumns+" FROM instructors WHERE id = $1", id)
	if err != nil {
		return instructor.Instructor{}, trapNoRows(err, instructor.ErrNotFound, "getting instructor")
	}
	return i, nil
}

func (repo instructorRepository) InstructorExists(ctx context.Context, id int) (bool, error) {
	ok, err := exists(ctx, repo.db, "SELECT 1 FROM instructors WHERE id = $1", id)
	return ok, errors.Wrap(err, "checking instructor")
}

func (repo instructorRepository) QueryInstructors(ctx context.Context, filter instructor.QueryFilter) ([]instructor.Instructor, error) {
	var conds conditions
	if filter.IsActive != nil {
		conds.add("is_active = ?", *filter.IsActive)
	}
	if filter.Specialty != "" {
		conds.add("LOWER(specialty) = ?", filter.Specialty)
	}
	q := "SELECT " + instructorColumns + " FROM instructors" + conds.where() + " ORDER BY name, id"

	instructors := make([]instructor.Instructor, 0)
	if err := repo.db.SelectContext(ctx, &instructors, repo.db.Rebind(q), conds.args...); err != nil {
		return nil, errors.Wrap(err, "querying instructors")
	}
	return instructors, nil
}

func (repo instructorRepository) UpdateInstructor(ctx context.Context, i instructor.Instructor) (instructor.Instructor, error) {
	err := updateOne(ctx, repo.db, `
		UPDATE instructors SET name = :name, email = :email, cpf = :cpf, phone = :phone,
			specialty = :specialty, is_active = :is_active
		WHERE id = :id`, i, instructor.ErrNotFound)
	if err != nil {
		switch {
		case err == instructor.ErrNotFound:
			return instructor.Instructor{}, err
		case pgCode(err) == uniqueViolation:
			return instructor.Instructor{}, instructor.ErrEmailExists
		}
		return instructor.Instructor{}, errors.Wrap(err, "updating instructor")
	}
	return i, nil
}

func (repo instructorRepository) DeactivateInstructor(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "UPDATE instructors SET is_active = false WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deactivating instructor")
	}
	return checkAffected(res, instructor.ErrNotFound)
}
