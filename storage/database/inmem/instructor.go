package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/aquaflow/core/instructor"
)

type instructorRepository struct {
	db *DB
}

var _ instructor.Repository = (*instructorRepository)(nil) // interface compliance check

func NewInstructorRepository(db *DB) *instructorRepository {
	return &instructorRepository{db: db}
}

func (repo *instructorRepository) CheckUniqueness(_ context.Context, email, cpf string, excluded *instructor.Instructor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkUniqueness(email, cpf, excluded)
}

func (repo *instructorRepository) checkUniqueness(email, cpf string, excluded *instructor.Instructor) error {
	for _, i := range repo.db.instructors {
		if excluded != nil && i.ID == excluded.ID {
			continue
		}
		if i.Email == email {
			return instructor.ErrEmailExists
		}
		if i.CPF == cpf {
			return instructor.ErrCPFExists
		}
	}
	return nil
}

func (repo *instructorRepository) CreateInstructor(_ context.Context, i instructor.Instructor) (instructor.Instructor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkUniqueness(i.Email, i.CPF, nil); err != nil {
		return instructor.Instructor{}, err
	}
	i.ID = repo.db.nextID("instructors")
	repo.db.instructors[i.ID] = i
	return i, nil
}

func (repo *instructorRepository) GetInstructor(_ context.Context, id int) (instructor.Instructor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i, ok := repo.db.instructors[id]; ok {
		return i, nil
	}
	return instructor.Instructor{}, instructor.ErrNotFound
}

func (repo *instructorRepository) InstructorExists(_ context.Context, id int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.instructors[id]
	return ok, nil
}

func (repo *instructorRepository) QueryInstructors(_ context.Context, filter instructor.QueryFilter) ([]instructor.Instructor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	instructors := make([]instructor.Instructor, 0, len(repo.db.instructors))
	for _, i := range repo.db.instructors {
		if filter.IsActive != nil && i.IsActive != *filter.IsActive {
			continue
		}
		if filter.Specialty != "" && !strings.EqualFold(i.Specialty.String, filter.Specialty) {
			continue
		}
		instructors = append(instructors, i)
	}
	sort.Slice(instructors, func(a, b int) bool {
		if instructors[a].Name != instructors[b].Name {
			return instructors[a].Name < instructors[b].Name
		}
		return instructors[a].ID < instructors[b].ID
	})
	return instructors, nil
}

func (repo *instructorRepository) UpdateInstructor(_ context.Context, i instructor.Instructor) (instructor.Instructor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.instructors[i.ID]; !ok {
		return instructor.Instructor{}, instructor.ErrNotFound
	}
	if err := repo.checkUniqueness(i.Email, i.CPF, &i); err != nil {
		return instructor.Instructor{}, err
	}
	repo.db.instructors[i.ID] = i
	return i, nil
}

func (repo *instructorRepository) DeactivateInstructor(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i, ok := repo.db.instructors[id]
	if !ok {
		return instructor.ErrNotFound
	}
	i.IsActive = false
	repo.db.instructors[id] = i
	return nil
}
