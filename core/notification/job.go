// Package notification sends the daily WhatsApp payment reminders.
package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/billing"
	"github.com/trezcool/aquaflow/core/calendar"
	"github.com/trezcool/aquaflow/core/student"
)

var (
	ErrNoPhone = errors.New("aluno sem telefone cadastrado")

	// ReportTemplate is the email template of the daily run summary.
	ReportTemplate = "notification_report"
)

type (
	// Sender delivers a text message to a phone number.
	Sender interface {
		SendText(ctx context.Context, phone, text string) error
	}

	// Students lists the students reminders may go to.
	Students interface {
		Query(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
	}

	// Payments tells whether a student already paid a reference month.
	Payments interface {
		HasPaidMonth(ctx context.Context, studentID int, referenceMonth string) (bool, error)
	}

	Options struct {
		DueSoonDays int
		OverdueDays int
		ReportTo    string // receives the run summary; empty disables it
	}

	Job struct {
		students Students
		payments Payments
		sender   Sender
		mailer   core.EmailService
		logger   core.Logger
		opts     Options
	}

	// Failure records why a reminder could not be sent.
	Failure struct {
		StudentID int
		Name      string
		Reason    string
	}

	// Report summarizes one reminder run.
	Report struct {
		RunID    uuid.UUID
		Kind     billing.Reminder
		Date     calendar.Date
		Checked  int // students the reminder was due for
		Sent     int
		Skipped  int // already paid
		Failed   int
		Failures []Failure
	}
)

func NewJob(
	students Students,
	payments Payments,
	sender Sender,
	mailer core.EmailService,
	logger core.Logger,
	opts Options,
) *Job {
	if opts.DueSoonDays <= 0 {
		opts.DueSoonDays = billing.DefaultDueSoonDays
	}
	if opts.OverdueDays <= 0 {
		opts.OverdueDays = billing.DefaultOverdueDays
	}
	return &Job{
		students: students,
		payments: payments,
		sender:   sender,
		mailer:   mailer,
		logger:   logger,
		opts:     opts,
	}
}

// RunDueSoon reminds students whose payment falls due in DueSoonDays.
func (j *Job) RunDueSoon(ctx context.Context, today time.Time) (Report, error) {
	return j.run(ctx, billing.ReminderDueSoon, today)
}

// RunOverdue reminds students whose payment is OverdueDays late.
func (j *Job) RunOverdue(ctx context.Context, today time.Time) (Report, error) {
	return j.run(ctx, billing.ReminderOverdue, today)
}

// Run runs both reminders and mails the summary when a recipient is configured.
// Both runs are attempted even when the first one fails.
func (j *Job) Run(ctx context.Context, today time.Time) ([]Report, error) {
	var (
		reports []Report
		runErr  error
	)
	for _, run := range []func(context.Context, time.Time) (Report, error){j.RunDueSoon, j.RunOverdue} {
		rep, err := run(ctx, today)
		if err != nil {
			j.logger.Error("notification run failed", err)
			if runErr == nil {
				runErr = err
			}
			continue
		}
		reports = append(reports, rep)
	}

	if j.opts.ReportTo != "" && j.mailer != nil && len(reports) > 0 {
		j.mailer.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Address: j.opts.ReportTo}},
			Subject:      fmt.Sprintf("Lembretes de pagamento - %s", calendar.DateOf(today).Format("02/01/2006")),
			TemplateName: ReportTemplate,
			TemplateData: reports,
		})
	}
	return reports, runErr
}

func (j *Job) run(ctx context.Context, kind billing.Reminder, today time.Time) (Report, error) {
	rep := Report{RunID: uuid.New(), Kind: kind, Date: calendar.DateOf(today)}

	students, err := j.students.Query(ctx, student.QueryFilter{Active: core.BoolPtr(true)})
	if err != nil {
		return rep, errors.Wrap(err, "querying active students")
	}

	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		reminder, dueDate := billing.ReminderFor(s.DueDay, today, j.opts.DueSoonDays, j.opts.OverdueDays)
		if reminder != kind {
			continue
		}
		rep.Checked++

		paid, err := j.payments.HasPaidMonth(ctx, s.ID, calendar.MonthOf(dueDate).String())
		if err != nil {
			rep.fail(s, err)
			j.logger.Error(fmt.Sprintf("checking payment of student %d", s.ID), err)
			continue
		}
		if paid {
			rep.Skipped++
			continue
		}

		if err := j.remind(ctx, s, kind, dueDate, today); err != nil {
			rep.fail(s, err)
			j.logger.Warn(fmt.Sprintf("%s reminder to student %d not sent: %v", kind, s.ID, err))
			continue
		}
		rep.Sent++
	}

	j.logger.Info(fmt.Sprintf("%s reminders done", kind), map[string]interface{}{
		"run_id":  rep.RunID.String(),
		"checked": rep.Checked,
		"sent":    rep.Sent,
		"skipped": rep.Skipped,
		"failed":  rep.Failed,
	})
	return rep, nil
}

func (j *Job) remind(ctx context.Context, s student.Student, kind billing.Reminder, dueDate, today time.Time) error {
	if !s.Phone.Valid || core.CleanString(s.Phone.String) == "" {
		return ErrNoPhone
	}
	text, err := renderReminder(kind, reminderData{
		Name:     s.FullName,
		Fee:      s.MonthlyFee,
		DueDate:  dueDate,
		DaysLeft: calendar.DaysBetween(today, dueDate),
		DaysLate: calendar.DaysBetween(dueDate, today),
	})
	if err != nil {
		return err
	}
	return j.sender.SendText(ctx, s.Phone.String, text)
}

func (r *Report) fail(s student.Student, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{StudentID: s.ID, Name: s.FullName, Reason: err.Error()})
}

// KindLabel is the Portuguese name of the report's reminder.
func (r Report) KindLabel() string {
	if r.Kind == billing.ReminderOverdue {
		return "Pagamentos em atraso"
	}
	return "Vencimentos próximos"
}
