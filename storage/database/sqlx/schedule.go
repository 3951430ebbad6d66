package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/schedule"
)

const slotColumns = "id, weekday, starts_at, max_capacity, lesson_type, instructor_id, waitlist"

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// trapTxErr maps lost serialization races to core.ErrConcurrencyConflict.
func trapTxErr(err error, msg string) error {
	if isConflict(err) {
		return core.ErrConcurrencyConflict
	}
	return errors.Wrap(err, msg)
}

func (repo scheduleRepository) CreateSlot(ctx context.Context, s schedule.Slot) (schedule.Slot, error) {
	id, err := insertReturningID(ctx, repo.db, `
		INSERT INTO slots (weekday, starts_at, max_capacity, lesson_type, instructor_id, waitlist)
		VALUES (:weekday, :starts_at, :max_capacity, :lesson_type, :instructor_id, :waitlist)
		RETURNING id`, s)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return schedule.Slot{}, schedule.ErrInstructorNotFound
		}
		return schedule.Slot{}, errors.Wrap(err, "inserting slot")
	}
	s.ID = id
	return s, nil
}

func (repo scheduleRepository) GetSlot(ctx context.Context, id int) (schedule.Slot, error) {
	var s schedule.Slot
	if err := repo.db.GetContext(ctx, &s, "SELECT "+slotColumns+" FROM slots WHERE id = $1", id); err != nil {
		return schedule.Slot{}, trapNoRows(err, schedule.ErrSlotNotFound, "getting slot")
	}
	return s, nil
}

func (repo scheduleRepository) QuerySlots(ctx context.Context) ([]schedule.Slot, error) {
	q := "SELECT " + slotColumns + " FROM slots ORDER BY " + weekOrder + ", starts_at, id"
	slots := make([]schedule.Slot, 0)
	if err := repo.db.SelectContext(ctx, &slots, repo.db.Rebind(q), pq.Array(schedule.Weekdays)); err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	return slots, nil
}

// UpdateSlot takes the same slot row lock as Enroll, so a capacity shrink and a concurrent
// enrollment cannot both commit past the new limit.
func (repo scheduleRepository) UpdateSlot(ctx context.Context, s schedule.Slot) (schedule.Slot, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return schedule.Slot{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var maxCapacity int
	err = tx.GetContext(ctx, &maxCapacity, "SELECT max_capacity FROM slots WHERE id = $1 FOR UPDATE", s.ID)
	if err != nil {
		if isConflict(err) {
			return schedule.Slot{}, core.ErrConcurrencyConflict
		}
		return schedule.Slot{}, trapNoRows(err, schedule.ErrSlotNotFound, "locking slot")
	}
	if s.MaxCapacity < maxCapacity {
		var count int
		if err = tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE slot_id = $1", s.ID); err != nil {
			return schedule.Slot{}, errors.Wrap(err, "counting enrollments")
		}
		if s.MaxCapacity < count {
			return schedule.Slot{}, &schedule.CapacityBelowRosterError{Enrolled: count}
		}
	}

	err = updateOne(ctx, tx, `
		UPDATE slots SET weekday = :weekday, starts_at = :starts_at, max_capacity = :max_capacity,
			lesson_type = :lesson_type, instructor_id = :instructor_id, waitlist = :waitlist
		WHERE id = :id`, s, schedule.ErrSlotNotFound)
	if err != nil {
		switch {
		case err == schedule.ErrSlotNotFound:
			return schedule.Slot{}, err
		case pgCode(err) == foreignKeyViolation:
			return schedule.Slot{}, schedule.ErrInstructorNotFound
		}
		return schedule.Slot{}, trapTxErr(err, "updating slot")
	}
	if err = tx.Commit(); err != nil {
		return schedule.Slot{}, trapTxErr(err, "committing slot update")
	}
	return s, nil
}

func (repo scheduleRepository) DeleteSlot(ctx context.Context, id int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// lock the slot: no enrollment may slip in between the count and the delete
	var locked int
	if err = tx.GetContext(ctx, &locked, "SELECT id FROM slots WHERE id = $1 FOR UPDATE", id); err != nil {
		return trapNoRows(err, schedule.ErrSlotNotFound, "locking slot")
	}
	var count int
	if err = tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE slot_id = $1", id); err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	if count > 0 {
		return &schedule.HasEnrollmentsError{Count: count}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM slots WHERE id = $1", id); err != nil {
		return trapTxErr(err, "deleting slot")
	}
	return trapTxErr(tx.Commit(), "committing slot deletion")
}

func (repo scheduleRepository) CountEnrollments(ctx context.Context, slotID int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE slot_id = $1", slotID)
	return count, errors.Wrap(err, "counting enrollments")
}

// Enroll holds a row lock on the slot for the whole transaction, so concurrent enrollments into
// the same slot run one after the other; the insert itself only happens while the roster is short
// of max_capacity.
func (repo scheduleRepository) Enroll(ctx context.Context, slotID, studentID int) (schedule.Enrollment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return schedule.Enrollment{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var maxCapacity int
	err = tx.GetContext(ctx, &maxCapacity, "SELECT max_capacity FROM slots WHERE id = $1 FOR UPDATE", slotID)
	if err != nil {
		if isConflict(err) {
			return schedule.Enrollment{}, core.ErrConcurrencyConflict
		}
		return schedule.Enrollment{}, trapNoRows(err, schedule.ErrSlotNotFound, "locking slot")
	}

	var active bool
	if err = tx.GetContext(ctx, &active, "SELECT active FROM students WHERE id = $1", studentID); err != nil {
		return schedule.Enrollment{}, trapNoRows(err, schedule.ErrStudentNotFound, "getting student")
	}
	if !active {
		return schedule.Enrollment{}, schedule.ErrInactiveStudent
	}

	dup, err := exists(
		ctx, tx,
		"SELECT 1 FROM enrollments WHERE slot_id = $1 AND student_id = $2",
		slotID, studentID,
	)
	if err != nil {
		return schedule.Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if dup {
		return schedule.Enrollment{}, schedule.ErrDuplicateEnrollment
	}

	e := schedule.Enrollment{SlotID: slotID, StudentID: studentID, CreatedAt: time.Now().UTC()}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO enrollments (slot_id, student_id, created_at)
		SELECT $1, $2, $3
		WHERE (SELECT COUNT(*) FROM enrollments WHERE slot_id = $1) < $4
		RETURNING id`,
		slotID, studentID, e.CreatedAt, maxCapacity,
	).Scan(&e.ID)
	switch {
	case err == sql.ErrNoRows:
		return schedule.Enrollment{}, &schedule.CapacityError{MaxCapacity: maxCapacity}
	case pgCode(err) == uniqueViolation:
		return schedule.Enrollment{}, schedule.ErrDuplicateEnrollment
	case err != nil:
		return schedule.Enrollment{}, trapTxErr(err, "inserting enrollment")
	}

	if err = tx.Commit(); err != nil {
		return schedule.Enrollment{}, trapTxErr(err, "committing enrollment")
	}
	return e, nil
}

func (repo scheduleRepository) Withdraw(ctx context.Context, slotID, studentID int) error {
	if ok, err := exists(ctx, repo.db, "SELECT 1 FROM slots WHERE id = $1", slotID); err != nil {
		return errors.Wrap(err, "checking slot")
	} else if !ok {
		return schedule.ErrSlotNotFound
	}
	res, err := repo.db.ExecContext(
		ctx, "DELETE FROM enrollments WHERE slot_id = $1 AND student_id = $2", slotID, studentID,
	)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return checkAffected(res, schedule.ErrEnrollmentNotFound)
}

func (repo scheduleRepository) QueryGrid(ctx context.Context) ([]schedule.GridSlot, error) {
	q := `SELECT s.id, s.weekday, s.starts_at, s.max_capacity, s.lesson_type, s.instructor_id, s.waitlist,
			i.name AS instructor_name
		FROM slots s
		LEFT JOIN instructors i ON i.id = s.instructor_id
		ORDER BY ` + weekOrder + `, s.starts_at, s.id`
	grid := make([]schedule.GridSlot, 0)
	if err := repo.db.SelectContext(ctx, &grid, repo.db.Rebind(q), pq.Array(schedule.Weekdays)); err != nil {
		return nil, errors.Wrap(err, "querying grid")
	}

	var roster []schedule.RosterEntry
	err := repo.db.SelectContext(ctx, &roster, `
		SELECT e.slot_id, st.id, st.full_name, st.phone
		FROM enrollments e
		JOIN students st ON st.id = e.student_id
		ORDER BY st.full_name, st.id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying rosters")
	}

	bySlot := make(map[int][]schedule.RosterEntry, len(grid))
	for _, r := range roster {
		bySlot[r.SlotID] = append(bySlot[r.SlotID], r)
	}
	for i := range grid {
		grid[i].Students = bySlot[grid[i].ID]
	}
	return grid, nil
}
