package schedule

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aquaflow/core"
)

// fakeRepo implements the Repository calls the service tests need; the rest panic.
type fakeRepo struct {
	Repository
	slot        Slot
	enrolled    int
	conflicts   int
	enrollCalls int
	updated     *Slot
}

func (r *fakeRepo) GetSlot(_ context.Context, id int) (Slot, error) {
	if id != r.slot.ID {
		return Slot{}, ErrSlotNotFound
	}
	return r.slot, nil
}

func (r *fakeRepo) CountEnrollments(context.Context, int) (int, error) {
	return r.enrolled, nil
}

func (r *fakeRepo) UpdateSlot(_ context.Context, s Slot) (Slot, error) {
	if s.MaxCapacity < r.enrolled {
		return Slot{}, &CapacityBelowRosterError{Enrolled: r.enrolled}
	}
	r.updated = &s
	return s, nil
}

func (r *fakeRepo) Enroll(_ context.Context, slotID, studentID int) (Enrollment, error) {
	r.enrollCalls++
	if r.enrollCalls <= r.conflicts {
		return Enrollment{}, errors.Wrap(core.ErrConcurrencyConflict, "inserting enrollment")
	}
	return Enrollment{ID: 1, SlotID: slotID, StudentID: studentID}, nil
}

type fakeInstructors struct {
	ids map[int]bool
}

func (f fakeInstructors) InstructorExists(_ context.Context, id int) (bool, error) {
	return f.ids[id], nil
}

func TestService_Enroll_retriesConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers", func(t *testing.T) {
		repo := &fakeRepo{conflicts: maxEnrollAttempts - 1}
		e, err := NewService(repo, fakeInstructors{}).Enroll(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, Enrollment{ID: 1, SlotID: 7, StudentID: 3}, e)
		assert.Equal(t, maxEnrollAttempts, repo.enrollCalls)
	})

	t.Run("gives up", func(t *testing.T) {
		repo := &fakeRepo{conflicts: maxEnrollAttempts}
		_, err := NewService(repo, fakeInstructors{}).Enroll(ctx, 7, 3)
		assert.Equal(t, core.ErrConcurrencyConflict, errors.Cause(err))
		assert.Equal(t, maxEnrollAttempts, repo.enrollCalls)
	})
}

func TestService_UpdateSlot(t *testing.T) {
	ctx := context.Background()
	intPtr := func(i int) *int { return &i }

	t.Run("capacity below roster", func(t *testing.T) {
		repo := &fakeRepo{slot: Slot{ID: 1, MaxCapacity: 10}, enrolled: 6}
		_, err := NewService(repo, fakeInstructors{}).UpdateSlot(ctx, 1, UpdateSlot{MaxCapacity: intPtr(5)})
		var belowErr *CapacityBelowRosterError
		require.True(t, errors.As(err, &belowErr))
		assert.Equal(t, 6, belowErr.Enrolled)
		assert.Nil(t, repo.updated)
	})

	t.Run("capacity down to roster", func(t *testing.T) {
		repo := &fakeRepo{slot: Slot{ID: 1, MaxCapacity: 10}, enrolled: 6}
		s, err := NewService(repo, fakeInstructors{}).UpdateSlot(ctx, 1, UpdateSlot{MaxCapacity: intPtr(6)})
		require.NoError(t, err)
		assert.Equal(t, 6, s.MaxCapacity)
	})

	t.Run("unknown instructor", func(t *testing.T) {
		repo := &fakeRepo{slot: Slot{ID: 1, MaxCapacity: 10}}
		_, err := NewService(repo, fakeInstructors{ids: map[int]bool{2: true}}).UpdateSlot(ctx, 1, UpdateSlot{InstructorID: intPtr(9)})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "professor_id", vErr.Fields[0].Field)
	})

	t.Run("slot not found", func(t *testing.T) {
		repo := &fakeRepo{slot: Slot{ID: 1}}
		_, err := NewService(repo, fakeInstructors{}).UpdateSlot(ctx, 2, UpdateSlot{})
		assert.Equal(t, ErrSlotNotFound, err)
	})
}

func TestNewOccupancy(t *testing.T) {
	o := NewOccupancy(Slot{ID: 4, Weekday: Monday, StartsAt: "07:00", MaxCapacity: 3}, 2)
	assert.Equal(t, 1, o.Available)
	assert.Equal(t, 66.67, o.PercentFull)

	o = NewOccupancy(Slot{ID: 4, MaxCapacity: 0}, 0)
	assert.Zero(t, o.PercentFull)
}
