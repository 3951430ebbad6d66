package schedule

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
)

// maxEnrollAttempts bounds retries of an enrollment that lost a serialization race.
const maxEnrollAttempts = 3

type (
	Repository interface {
		CreateSlot(ctx context.Context, s Slot) (Slot, error)
		GetSlot(ctx context.Context, id int) (Slot, error)
		// QuerySlots returns all slots in week order, then by start time.
		QuerySlots(ctx context.Context) ([]Slot, error)
		// UpdateSlot returns CapacityBelowRosterError when the new capacity is smaller than the
		// roster. The roster count and the write are atomic.
		UpdateSlot(ctx context.Context, s Slot) (Slot, error)
		// DeleteSlot removes an empty slot; it returns HasEnrollmentsError otherwise.
		DeleteSlot(ctx context.Context, id int) error
		CountEnrollments(ctx context.Context, slotID int) (int, error)
		// Enroll checks, in order: the slot exists, the student exists and is active, the student is
		// not already enrolled, the roster has room. The capacity check and the insert are atomic.
		Enroll(ctx context.Context, slotID, studentID int) (Enrollment, error)
		Withdraw(ctx context.Context, slotID, studentID int) error
		// QueryGrid returns every slot with its instructor name and roster, in week order.
		QueryGrid(ctx context.Context) ([]GridSlot, error)
	}

	// InstructorRepository is the part of the instructor store slots depend on.
	InstructorRepository interface {
		InstructorExists(ctx context.Context, id int) (bool, error)
	}

	Service struct {
		repo        Repository
		instructors InstructorRepository
	}
)

func NewService(repo Repository, instructors InstructorRepository) *Service {
	return &Service{repo: repo, instructors: instructors}
}

func (svc *Service) checkInstructor(ctx context.Context, id int) error {
	exists, err := svc.instructors.InstructorExists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking instructor")
	}
	if !exists {
		return core.NewValidationError(
			ErrInstructorNotFound,
			core.FieldError{Field: "professor_id", Error: ErrInstructorNotFound.Error()},
		)
	}
	return nil
}

func (svc *Service) CreateSlot(ctx context.Context, ns NewSlot) (Slot, error) {
	if ns.InstructorID.Valid {
		if err := svc.checkInstructor(ctx, ns.InstructorID.Int); err != nil {
			return Slot{}, err
		}
	}
	return svc.repo.CreateSlot(ctx, Slot{
		Weekday:      ns.Weekday,
		StartsAt:     ns.StartsAt,
		MaxCapacity:  ns.MaxCapacity,
		LessonType:   ns.LessonType,
		InstructorID: ns.InstructorID,
		Waitlist:     ns.Waitlist,
	})
}

func (svc *Service) Slots(ctx context.Context) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx)
}

func (svc *Service) Slot(ctx context.Context, id int) (Slot, error) {
	return svc.repo.GetSlot(ctx, id)
}

func (svc *Service) UpdateSlot(ctx context.Context, id int, us UpdateSlot) (Slot, error) {
	orig, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return Slot{}, err
	}
	if us.InstructorID != nil && (!orig.InstructorID.Valid || orig.InstructorID.Int != *us.InstructorID) {
		if err := svc.checkInstructor(ctx, *us.InstructorID); err != nil {
			return Slot{}, err
		}
	}
	return svc.repo.UpdateSlot(ctx, us.Apply(orig))
}

func (svc *Service) DeleteSlot(ctx context.Context, id int) error {
	return svc.repo.DeleteSlot(ctx, id)
}

// Enroll adds a student to a slot's roster. Lost serialization races are retried a few times
// before core.ErrConcurrencyConflict is surfaced.
func (svc *Service) Enroll(ctx context.Context, slotID, studentID int) (Enrollment, error) {
	var err error
	for attempt := 0; attempt < maxEnrollAttempts; attempt++ {
		var e Enrollment
		e, err = svc.repo.Enroll(ctx, slotID, studentID)
		if errors.Cause(err) != core.ErrConcurrencyConflict {
			return e, err
		}
	}
	return Enrollment{}, err
}

func (svc *Service) Withdraw(ctx context.Context, slotID, studentID int) error {
	return svc.repo.Withdraw(ctx, slotID, studentID)
}

func (svc *Service) Occupancy(ctx context.Context, slotID int) (Occupancy, error) {
	slot, err := svc.repo.GetSlot(ctx, slotID)
	if err != nil {
		return Occupancy{}, err
	}
	enrolled, err := svc.repo.CountEnrollments(ctx, slotID)
	if err != nil {
		return Occupancy{}, errors.Wrap(err, "counting enrollments")
	}
	return NewOccupancy(slot, enrolled), nil
}

func (svc *Service) Grid(ctx context.Context) ([]GridSlot, error) {
	grid, err := svc.repo.QueryGrid(ctx)
	if err != nil {
		return nil, err
	}
	for i := range grid {
		if grid[i].Students == nil {
			grid[i].Students = []RosterEntry{}
		}
		grid[i].Available = grid[i].MaxCapacity - len(grid[i].Students)
	}
	return grid, nil
}
