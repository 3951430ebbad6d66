package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func sortStudents(students []student.Student) {
	sort.Slice(students, func(i, j int) bool {
		if students[i].FullName != students[j].FullName {
			return students[i].FullName < students[j].FullName
		}
		return students[i].ID < students[j].ID
	})
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s.ID = repo.db.nextID("students")
	repo.db.students[s.ID] = s
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id int) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) StudentExists(_ context.Context, id int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.students[id]
	return ok, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		if filter.LessonType != "" && s.LessonType != filter.LessonType {
			continue
		}
		students = append(students, s)
	}
	sortStudents(students)
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.students[s.ID] = s
	return s, nil
}

func (repo *studentRepository) DeactivateStudent(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	s.Active = false
	s.UpdatedAt = time.Now().UTC()
	repo.db.students[id] = s
	return nil
}

func (repo *studentRepository) QueryLastPayments(_ context.Context, cutoff time.Time) ([]student.LastPayment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	last := make(map[int]calendar.Date, len(repo.db.students))
	for _, p := range repo.db.payments {
		if cur, ok := last[p.StudentID]; !ok || p.PaidOn.After(cur) {
			last[p.StudentID] = p.PaidOn
		}
	}

	limit := calendar.DateOf(cutoff)
	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		if !s.Active {
			continue
		}
		if paidOn, ok := last[s.ID]; ok && !paidOn.Before(limit) {
			continue
		}
		students = append(students, s)
	}
	sortStudents(students)

	rows := make([]student.LastPayment, 0, len(students))
	for _, s := range students {
		rows = append(rows, student.LastPayment{Student: s, PaidOn: last[s.ID]})
	}
	return rows, nil
}
