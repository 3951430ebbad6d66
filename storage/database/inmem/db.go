// Package inmemdb implements the core repositories in memory. A single lock guards every table,
// which makes each repository call atomic.
package inmemdb

import (
	"sync"

	"github.com/trezcool/aquaflow/core/instructor"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/plan"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[int]user.User
	students    map[int]student.Student
	payments    map[int]payment.Payment
	plans       map[int]plan.Plan
	instructors map[int]instructor.Instructor
	slots       map[int]schedule.Slot
	enrollments map[int]schedule.Enrollment

	pkCount map[string]int // table: last primary key
}

func Open() *DB {
	return &DB{
		users:       make(map[int]user.User),
		students:    make(map[int]student.Student),
		payments:    make(map[int]payment.Payment),
		plans:       make(map[int]plan.Plan),
		instructors: make(map[int]instructor.Instructor),
		slots:       make(map[int]schedule.Slot),
		enrollments: make(map[int]schedule.Enrollment),
		pkCount:     make(map[string]int),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.pkCount[table]++
	return db.pkCount[table]
}
