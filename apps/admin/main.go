package main

import (
	"os"

	"github.com/trezcool/aquaflow/assets"
	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/notification"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
	"github.com/trezcool/aquaflow/services/email"
	"github.com/trezcool/aquaflow/services/logger"
	"github.com/trezcool/aquaflow/services/whatsapp"
	"github.com/trezcool/aquaflow/storage/database"
	"github.com/trezcool/aquaflow/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewLogrus(conf, os.Stdout), conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	// set up services
	studentRepo := sqlxrepos.NewStudentRepository(db)
	students := student.NewService(studentRepo, sqlxrepos.NewPlanRepository(db))
	payments := payment.NewService(sqlxrepos.NewPaymentRepository(db), studentRepo)
	tmpls := core.NewEmailTemplates(assets.FS, conf.Debug)

	var mailSvc core.EmailService
	var sender notification.Sender
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, tmpls, logger)
		sender = whatsappsvc.NewConsoleService(os.Stdout)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, tmpls, logger)
		sender = whatsappsvc.NewEvolutionService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(db)),
		reminders: notification.NewJob(students, payments, sender, mailSvc, logger, notification.Options{
			DueSoonDays: conf.Notification.DueSoonDays,
			OverdueDays: conf.Notification.OverdueDays,
			ReportTo:    conf.Notification.ReportEmail,
		}),
		loc: conf.Location(),
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
