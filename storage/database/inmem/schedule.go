package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aquaflow/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func sortSlots(slots []schedule.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if wa, wb := schedule.WeekdayIndex(a.Weekday), schedule.WeekdayIndex(b.Weekday); wa != wb {
			return wa < wb
		}
		if a.StartsAt != b.StartsAt {
			return a.StartsAt < b.StartsAt
		}
		return a.ID < b.ID
	})
}

// countEnrollments must be called with the lock held.
func (repo *scheduleRepository) countEnrollments(slotID int) int {
	var n int
	for _, e := range repo.db.enrollments {
		if e.SlotID == slotID {
			n++
		}
	}
	return n
}

func (repo *scheduleRepository) checkInstructor(id null.Int) error {
	if !id.Valid {
		return nil
	}
	if _, ok := repo.db.instructors[id.Int]; !ok {
		return schedule.ErrInstructorNotFound
	}
	return nil
}

func (repo *scheduleRepository) CreateSlot(_ context.Context, s schedule.Slot) (schedule.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkInstructor(s.InstructorID); err != nil {
		return schedule.Slot{}, err
	}
	s.ID = repo.db.nextID("slots")
	repo.db.slots[s.ID] = s
	return s, nil
}

func (repo *scheduleRepository) GetSlot(_ context.Context, id int) (schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.slots[id]; ok {
		return s, nil
	}
	return schedule.Slot{}, schedule.ErrSlotNotFound
}

func (repo *scheduleRepository) QuerySlots(_ context.Context) ([]schedule.Slot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slots := make([]schedule.Slot, 0, len(repo.db.slots))
	for _, s := range repo.db.slots {
		slots = append(slots, s)
	}
	sortSlots(slots)
	return slots, nil
}

func (repo *scheduleRepository) UpdateSlot(_ context.Context, s schedule.Slot) (schedule.Slot, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.slots[s.ID]
	if !ok {
		return schedule.Slot{}, schedule.ErrSlotNotFound
	}
	if err := repo.checkInstructor(s.InstructorID); err != nil {
		return schedule.Slot{}, err
	}
	if s.MaxCapacity < orig.MaxCapacity {
		if n := repo.countEnrollments(s.ID); s.MaxCapacity < n {
			return schedule.Slot{}, &schedule.CapacityBelowRosterError{Enrolled: n}
		}
	}
	repo.db.slots[s.ID] = s
	return s, nil
}

func (repo *scheduleRepository) DeleteSlot(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.slots[id]; !ok {
		return schedule.ErrSlotNotFound
	}
	if n := repo.countEnrollments(id); n > 0 {
		return &schedule.HasEnrollmentsError{Count: n}
	}
	delete(repo.db.slots, id)
	return nil
}

func (repo *scheduleRepository) CountEnrollments(_ context.Context, slotID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.countEnrollments(slotID), nil
}

func (repo *scheduleRepository) Enroll(_ context.Context, slotID, studentID int) (schedule.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	slot, ok := repo.db.slots[slotID]
	if !ok {
		return schedule.Enrollment{}, schedule.ErrSlotNotFound
	}
	s, ok := repo.db.students[studentID]
	if !ok {
		return schedule.Enrollment{}, schedule.ErrStudentNotFound
	}
	if !s.Active {
		return schedule.Enrollment{}, schedule.ErrInactiveStudent
	}

	var enrolled int
	for _, e := range repo.db.enrollments {
		if e.SlotID != slotID {
			continue
		}
		if e.StudentID == studentID {
			return schedule.Enrollment{}, schedule.ErrDuplicateEnrollment
		}
		enrolled++
	}
	if enrolled >= slot.MaxCapacity {
		return schedule.Enrollment{}, &schedule.CapacityError{MaxCapacity: slot.MaxCapacity}
	}

	e := schedule.Enrollment{
		ID:        repo.db.nextID("enrollments"),
		SlotID:    slotID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	}
	repo.db.enrollments[e.ID] = e
	return e, nil
}

func (repo *scheduleRepository) Withdraw(_ context.Context, slotID, studentID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.slots[slotID]; !ok {
		return schedule.ErrSlotNotFound
	}
	for id, e := range repo.db.enrollments {
		if e.SlotID == slotID && e.StudentID == studentID {
			delete(repo.db.enrollments, id)
			return nil
		}
	}
	return schedule.ErrEnrollmentNotFound
}

func (repo *scheduleRepository) QueryGrid(_ context.Context) ([]schedule.GridSlot, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	slots := make([]schedule.Slot, 0, len(repo.db.slots))
	for _, s := range repo.db.slots {
		slots = append(slots, s)
	}
	sortSlots(slots)

	rosters := make(map[int][]schedule.RosterEntry, len(slots))
	for _, e := range repo.db.enrollments {
		s, ok := repo.db.students[e.StudentID]
		if !ok {
			continue
		}
		rosters[e.SlotID] = append(rosters[e.SlotID], schedule.RosterEntry{
			SlotID:   e.SlotID,
			ID:       s.ID,
			FullName: s.FullName,
			Phone:    s.Phone,
		})
	}

	grid := make([]schedule.GridSlot, 0, len(slots))
	for _, s := range slots {
		roster := rosters[s.ID]
		sort.Slice(roster, func(i, j int) bool {
			if roster[i].FullName != roster[j].FullName {
				return roster[i].FullName < roster[j].FullName
			}
			return roster[i].ID < roster[j].ID
		})
		gs := schedule.GridSlot{Slot: s, Students: roster}
		if s.InstructorID.Valid {
			if i, ok := repo.db.instructors[s.InstructorID.Int]; ok {
				gs.InstructorName = null.StringFrom(i.Name)
			}
		}
		grid = append(grid, gs)
	}
	return grid, nil
}
