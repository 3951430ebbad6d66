package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/aquaflow/apps/api/echo"
	"github.com/trezcool/aquaflow/assets"
	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/instructor"
	"github.com/trezcool/aquaflow/core/notification"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/plan"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
	emailsvc "github.com/trezcool/aquaflow/services/email"
	logsvc "github.com/trezcool/aquaflow/services/logger"
	"github.com/trezcool/aquaflow/services/scheduler"
	whatsappsvc "github.com/trezcool/aquaflow/services/whatsapp"
	"github.com/trezcool/aquaflow/storage/database"
	sqlxrepos "github.com/trezcool/aquaflow/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	DB            *sqlx.DB
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	StudentSvc    *student.Service
	PaymentSvc    *payment.Service
	ScheduleSvc   *schedule.Service
	PlanSvc       *plan.Service
	InstructorSvc *instructor.Service
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, os.Stdout), conf)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewLogrus(conf, os.Stdout)
	std.ReportCaller = true
	return logsvc.NewRollbarLogger(std, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailTemplates(conf *core.Config) *core.EmailTemplates {
	return core.NewEmailTemplates(assets.FS, conf.Debug || conf.TestMode)
}

func newEmailService(conf *core.Config, tmpls *core.EmailTemplates, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, tmpls, logger)
	}
	return emailsvc.NewSendgridService(conf, tmpls, logger)
}

func newWhatsAppSender(conf *core.Config, logger core.Logger) notification.Sender {
	if conf.Debug && conf.WhatsApp.URL == "" {
		return whatsappsvc.NewConsoleService(os.Stdout)
	}
	return whatsappsvc.NewEvolutionService(conf, logger)
}

func newNotificationJob(
	conf *core.Config,
	students *student.Service,
	payments *payment.Service,
	sender notification.Sender,
	mailer core.EmailService,
	logger core.Logger,
) *notification.Job {
	return notification.NewJob(students, payments, sender, mailer, logger, notification.Options{
		DueSoonDays: conf.Notification.DueSoonDays,
		OverdueDays: conf.Notification.OverdueDays,
		ReportTo:    conf.Notification.ReportEmail,
	})
}

func newScheduler(conf *core.Config, job *notification.Job, logger core.Logger) *scheduler.Scheduler {
	return scheduler.New(conf, job, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:   p.Conf,
		Logger: p.Logger,
		DBCheck: func(ctx context.Context) error {
			return database.StatusCheck(ctx, p.DB)
		},
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		StudentSvc:    p.StudentSvc,
		PaymentSvc:    p.PaymentSvc,
		ScheduleSvc:   p.ScheduleSvc,
		PlanSvc:       p.PlanSvc,
		InstructorSvc: p.InstructorSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository), new(payment.StudentRepository))))
	must(c.Provide(sqlxrepos.NewPaymentRepository, dig.As(new(payment.Repository))))
	must(c.Provide(sqlxrepos.NewPlanRepository, dig.As(new(plan.Repository), new(student.PlanRepository))))
	must(c.Provide(sqlxrepos.NewInstructorRepository, dig.As(new(instructor.Repository), new(schedule.InstructorRepository))))
	must(c.Provide(sqlxrepos.NewScheduleRepository, dig.As(new(schedule.Repository))))

	// services
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newEmailTemplates))
	must(c.Provide(newEmailService))
	must(c.Provide(newWhatsAppSender))
	must(c.Provide(user.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(payment.NewService))
	must(c.Provide(plan.NewService))
	must(c.Provide(instructor.NewService))
	must(c.Provide(schedule.NewService))
	must(c.Provide(newNotificationJob))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
