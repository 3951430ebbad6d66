package inmemdb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
)

func createStudents(t *testing.T, repo *studentRepository, n int, active bool) []student.Student {
	t.Helper()
	students := make([]student.Student, 0, n)
	for i := 0; i < n; i++ {
		s, err := repo.CreateStudent(context.Background(), student.Student{
			FullName:   "Aluno",
			LessonType: student.LessonSwimming,
			DueDay:     10,
			Active:     active,
		})
		require.NoError(t, err)
		students = append(students, s)
	}
	return students
}

func TestScheduleRepository_Enroll_Concurrent(t *testing.T) {
	db := Open()
	slots := NewScheduleRepository(db)
	students := createStudents(t, NewStudentRepository(db), 25, true)

	slot, err := slots.CreateSlot(context.Background(), schedule.Slot{
		Weekday:     schedule.Monday,
		StartsAt:    "07:00",
		MaxCapacity: 10,
		LessonType:  student.LessonSwimming,
	})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		enrolled int
		full     int
	)
	for _, s := range students {
		wg.Add(1)
		go func(studentID int) {
			defer wg.Done()
			_, err := slots.Enroll(context.Background(), slot.ID, studentID)

			mu.Lock()
			defer mu.Unlock()
			switch err.(type) {
			case nil:
				enrolled++
			case *schedule.CapacityError:
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(s.ID)
	}
	wg.Wait()

	assert.Equal(t, 10, enrolled)
	assert.Equal(t, 15, full)

	count, err := slots.CountEnrollments(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestScheduleRepository_Enroll_Errors(t *testing.T) {
	db := Open()
	slots := NewScheduleRepository(db)
	studentRepo := NewStudentRepository(db)
	active := createStudents(t, studentRepo, 2, true)
	inactive := createStudents(t, studentRepo, 1, false)

	slot, err := slots.CreateSlot(context.Background(), schedule.Slot{
		Weekday:     schedule.Tuesday,
		StartsAt:    "08:00",
		MaxCapacity: 1,
		LessonType:  student.LessonSwimming,
	})
	require.NoError(t, err)

	_, err = slots.Enroll(context.Background(), slot.ID, active[0].ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		slotID    int
		studentID int
		wantErr   error
	}{
		{"slot not found", 999, active[1].ID, schedule.ErrSlotNotFound},
		{"student not found", slot.ID, 999, schedule.ErrStudentNotFound},
		{"inactive student", slot.ID, inactive[0].ID, schedule.ErrInactiveStudent},
		{"already enrolled", slot.ID, active[0].ID, schedule.ErrDuplicateEnrollment},
		{"full", slot.ID, active[1].ID, &schedule.CapacityError{MaxCapacity: 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := slots.Enroll(context.Background(), tc.slotID, tc.studentID)
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func TestScheduleRepository_UpdateSlot_Capacity(t *testing.T) {
	db := Open()
	slots := NewScheduleRepository(db)
	students := createStudents(t, NewStudentRepository(db), 3, true)

	slot, err := slots.CreateSlot(context.Background(), schedule.Slot{
		Weekday: schedule.Wednesday, StartsAt: "09:00", MaxCapacity: 5, LessonType: student.LessonSwimming,
	})
	require.NoError(t, err)
	for _, s := range students {
		_, err = slots.Enroll(context.Background(), slot.ID, s.ID)
		require.NoError(t, err)
	}

	shrunk := slot
	shrunk.MaxCapacity = 2
	_, err = slots.UpdateSlot(context.Background(), shrunk)
	assert.Equal(t, &schedule.CapacityBelowRosterError{Enrolled: 3}, err)
	assert.True(t, core.IsRuleViolation(err))

	shrunk.MaxCapacity = 3
	updated, err := slots.UpdateSlot(context.Background(), shrunk)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.MaxCapacity)
}

func TestScheduleRepository_UpdateSlot_ShrinkRacesEnroll(t *testing.T) {
	for round := 0; round < 20; round++ {
		db := Open()
		slots := NewScheduleRepository(db)
		students := createStudents(t, NewStudentRepository(db), 10, true)

		slot, err := slots.CreateSlot(context.Background(), schedule.Slot{
			Weekday: schedule.Thursday, StartsAt: "19:00", MaxCapacity: 10, LessonType: student.LessonSwimming,
		})
		require.NoError(t, err)
		for _, s := range students[:5] {
			_, err = slots.Enroll(context.Background(), slot.ID, s.ID)
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			shrunk := slot
			shrunk.MaxCapacity = 5
			_, err := slots.UpdateSlot(context.Background(), shrunk)
			if _, ok := err.(*schedule.CapacityBelowRosterError); err != nil && !ok {
				t.Errorf("unexpected error: %v", err)
			}
		}()
		for _, s := range students[5:] {
			wg.Add(1)
			go func(studentID int) {
				defer wg.Done()
				_, err := slots.Enroll(context.Background(), slot.ID, studentID)
				if _, ok := err.(*schedule.CapacityError); err != nil && !ok {
					t.Errorf("unexpected error: %v", err)
				}
			}(s.ID)
		}
		wg.Wait()

		got, err := slots.GetSlot(context.Background(), slot.ID)
		require.NoError(t, err)
		count, err := slots.CountEnrollments(context.Background(), slot.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, count, got.MaxCapacity)
	}
}

func TestScheduleRepository_DeleteSlot(t *testing.T) {
	db := Open()
	slots := NewScheduleRepository(db)
	students := createStudents(t, NewStudentRepository(db), 1, true)

	slot, err := slots.CreateSlot(context.Background(), schedule.Slot{
		Weekday: schedule.Friday, StartsAt: "18:00", MaxCapacity: 5, LessonType: student.LessonWaterAerobic,
	})
	require.NoError(t, err)
	_, err = slots.Enroll(context.Background(), slot.ID, students[0].ID)
	require.NoError(t, err)

	err = slots.DeleteSlot(context.Background(), slot.ID)
	assert.Equal(t, &schedule.HasEnrollmentsError{Count: 1}, err)
	assert.True(t, core.IsRuleViolation(err))

	require.NoError(t, slots.Withdraw(context.Background(), slot.ID, students[0].ID))
	assert.Equal(t, schedule.ErrEnrollmentNotFound, slots.Withdraw(context.Background(), slot.ID, students[0].ID))

	require.NoError(t, slots.DeleteSlot(context.Background(), slot.ID))
	_, err = slots.GetSlot(context.Background(), slot.ID)
	assert.Equal(t, schedule.ErrSlotNotFound, err)
}

func TestScheduleRepository_QueryGrid(t *testing.T) {
	db := Open()
	slots := NewScheduleRepository(db)
	studentRepo := NewStudentRepository(db)

	ana, err := studentRepo.CreateStudent(context.Background(), student.Student{FullName: "Ana", Active: true})
	require.NoError(t, err)
	bia, err := studentRepo.CreateStudent(context.Background(), student.Student{FullName: "Bia", Active: true})
	require.NoError(t, err)

	wed, err := slots.CreateSlot(context.Background(), schedule.Slot{Weekday: schedule.Wednesday, StartsAt: "09:00", MaxCapacity: 4})
	require.NoError(t, err)
	monLate, err := slots.CreateSlot(context.Background(), schedule.Slot{Weekday: schedule.Monday, StartsAt: "19:00", MaxCapacity: 4})
	require.NoError(t, err)
	monEarly, err := slots.CreateSlot(context.Background(), schedule.Slot{Weekday: schedule.Monday, StartsAt: "06:30", MaxCapacity: 4})
	require.NoError(t, err)

	for _, id := range []int{bia.ID, ana.ID} {
		_, err = slots.Enroll(context.Background(), monEarly.ID, id)
		require.NoError(t, err)
	}

	grid, err := slots.QueryGrid(context.Background())
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, []int{monEarly.ID, monLate.ID, wed.ID}, []int{grid[0].ID, grid[1].ID, grid[2].ID})
	if assert.Len(t, grid[0].Students, 2) {
		assert.Equal(t, "Ana", grid[0].Students[0].FullName)
		assert.Equal(t, "Bia", grid[0].Students[1].FullName)
	}
	assert.Empty(t, grid[1].Students)
}
