package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func expectEnrollChecks(mock sqlmock.Sqlmock, maxCapacity int) {
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT max_capacity FROM slots").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(maxCapacity))
	mock.ExpectQuery("SELECT active FROM students").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1, 7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

func TestScheduleRepository_Enroll(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepository(db)

	expectEnrollChecks(mock, 2)
	mock.ExpectQuery("INSERT INTO enrollments").
		WithArgs(1, 7, sqlmock.AnyArg(), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	e, err := repo.Enroll(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, e.ID)
	assert.Equal(t, 1, e.SlotID)
	assert.Equal(t, 7, e.StudentID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_Enroll_Full(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScheduleRepository(db)

	expectEnrollChecks(mock, 2)
	mock.ExpectQuery("INSERT INTO enrollments").
		WithArgs(1, 7, sqlmock.AnyArg(), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), 1, 7)
	var capErr *schedule.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.MaxCapacity)
	assert.True(t, core.IsRuleViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_Enroll_Errors(t *testing.T) {
	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "slot not found",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT max_capacity FROM slots").
					WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}))
				mock.ExpectRollback()
			},
			wantErr: schedule.ErrSlotNotFound,
		},
		{
			name: "student not found",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT max_capacity FROM slots").
					WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(10))
				mock.ExpectQuery("SELECT active FROM students").
					WillReturnRows(sqlmock.NewRows([]string{"active"}))
				mock.ExpectRollback()
			},
			wantErr: schedule.ErrStudentNotFound,
		},
		{
			name: "inactive student",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT max_capacity FROM slots").
					WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(10))
				mock.ExpectQuery("SELECT active FROM students").
					WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(false))
				mock.ExpectRollback()
			},
			wantErr: schedule.ErrInactiveStudent,
		},
		{
			name: "already enrolled",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT max_capacity FROM slots").
					WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(10))
				mock.ExpectQuery("SELECT active FROM students").
					WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
				mock.ExpectQuery("SELECT EXISTS").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			wantErr: schedule.ErrDuplicateEnrollment,
		},
		{
			name: "unique violation on insert",
			expect: func(mock sqlmock.Sqlmock) {
				expectEnrollChecks(mock, 10)
				mock.ExpectQuery("INSERT INTO enrollments").
					WillReturnError(&pq.Error{Code: uniqueViolation})
				mock.ExpectRollback()
			},
			wantErr: schedule.ErrDuplicateEnrollment,
		},
		{
			name: "serialization failure",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT max_capacity FROM slots").
					WillReturnError(&pq.Error{Code: serializationFailure})
				mock.ExpectRollback()
			},
			wantErr: core.ErrConcurrencyConflict,
		},
		{
			name: "deadlock on insert",
			expect: func(mock sqlmock.Sqlmock) {
				expectEnrollChecks(mock, 10)
				mock.ExpectQuery("INSERT INTO enrollments").
					WillReturnError(&pq.Error{Code: deadlockDetected})
				mock.ExpectRollback()
			},
			wantErr: core.ErrConcurrencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			tt.expect(mock)

			_, err := NewScheduleRepository(db).Enroll(context.Background(), 1, 7)
			assert.Equal(t, tt.wantErr, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScheduleRepository_UpdateSlot(t *testing.T) {
	lockSlot := regexp.QuoteMeta("SELECT max_capacity FROM slots WHERE id = $1 FOR UPDATE")
	slot := schedule.Slot{ID: 3, Weekday: schedule.Monday, StartsAt: "07:00", MaxCapacity: 5, LessonType: student.LessonSwimming}

	t.Run("shrink below roster", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockSlot).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(10))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
		mock.ExpectRollback()

		_, err := NewScheduleRepository(db).UpdateSlot(context.Background(), slot)
		assert.Equal(t, &schedule.CapacityBelowRosterError{Enrolled: 6}, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("shrink to roster", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockSlot).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(10))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectExec("UPDATE slots SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := NewScheduleRepository(db).UpdateSlot(context.Background(), slot)
		require.NoError(t, err)
		assert.Equal(t, slot, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("grow skips the count", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockSlot).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}).AddRow(4))
		mock.ExpectExec("UPDATE slots SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := NewScheduleRepository(db).UpdateSlot(context.Background(), slot)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockSlot).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"max_capacity"}))
		mock.ExpectRollback()

		_, err := NewScheduleRepository(db).UpdateSlot(context.Background(), slot)
		assert.Equal(t, schedule.ErrSlotNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock conflict", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockSlot).
			WithArgs(3).
			WillReturnError(&pq.Error{Code: deadlockDetected})
		mock.ExpectRollback()

		_, err := NewScheduleRepository(db).UpdateSlot(context.Background(), slot)
		assert.Equal(t, core.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScheduleRepository_DeleteSlot(t *testing.T) {
	t.Run("with enrollments", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM slots").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectRollback()

		err := NewScheduleRepository(db).DeleteSlot(context.Background(), 3)
		assert.Equal(t, &schedule.HasEnrollmentsError{Count: 4}, err)
		assert.EqualError(t, err, "Não é possível deletar. Existem 4 aluno(s) matriculado(s) neste horário.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM slots").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("DELETE FROM slots").
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewScheduleRepository(db).DeleteSlot(context.Background(), 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScheduleRepository_Withdraw(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM enrollments").
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewScheduleRepository(db).Withdraw(context.Background(), 1, 7)
	assert.Equal(t, schedule.ErrEnrollmentNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_QueryLastPayments(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	cols := []string{
		"id", "full_name", "guardian", "lesson_type", "monthly_fee", "due_day", "contract_start",
		"contract_end", "contract_months", "plan_id", "active", "phone", "notes", "created_at", "updated_at",
		"last_paid_on",
	}
	lastPaid := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("LEFT JOIN").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "Ana Souza", nil, "natacao", "150.00", 10, nil, nil, 12, nil, true, "11999990001", nil, now, now, nil).
			AddRow(2, "Bruno Lima", nil, "hidroginastica", "120.00", 5, nil, nil, 12, nil, true, nil, nil, now, now, lastPaid))

	rows, err := NewStudentRepository(db).QueryLastPayments(context.Background(), time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ana Souza", rows[0].FullName)
	assert.True(t, rows[0].PaidOn.IsZero())
	assert.Equal(t, "11999990001", rows[0].Phone.String)

	assert.Equal(t, 2, rows[1].ID)
	assert.Equal(t, "2024-01-05", rows[1].PaidOn.String())
	assert.Equal(t, "120", rows[1].MonthlyFee.String())
	assert.False(t, rows[1].Phone.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetStudent_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM students s WHERE").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewStudentRepository(db).GetStudent(context.Background(), 42)
	assert.Equal(t, student.ErrNotFound, err)
	assert.True(t, core.IsNotFound(err))
}

func TestPaymentRepository_HasPaymentForMonth(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(3, "2024-03").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	paid, err := NewPaymentRepository(db).HasPaymentForMonth(context.Background(), 3, "2024-03")
	require.NoError(t, err)
	assert.True(t, paid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_MonthlyReport(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("GROUP BY reference_month, method").
		WithArgs("2024-%").
		WillReturnRows(sqlmock.NewRows([]string{"reference_month", "method", "count", "total"}).
			AddRow("2024-03", "pix", 3, "450.00").
			AddRow("2024-02", "dinheiro", 1, "150.00"))

	lines, err := NewPaymentRepository(db).MonthlyReport(context.Background(), payment.ReportFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-03", lines[0].ReferenceMonth)
	assert.Equal(t, 3, lines[0].Count)
	assert.Equal(t, "450", lines[0].Total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_DeletePayment_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM payments").
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, payment.ErrNotFound, NewPaymentRepository(db).DeletePayment(context.Background(), 9))
}
