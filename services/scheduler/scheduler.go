// Package scheduler runs the payment reminders on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/notification"
)

const runTimeout = 10 * time.Minute

// Runner runs every reminder kind for a given day.
type Runner interface {
	Run(ctx context.Context, today time.Time) ([]notification.Report, error)
}

type Scheduler struct {
	cron   *cron.Cron
	chain  cron.Chain
	spec   string
	loc    *time.Location
	runner Runner
	logger core.Logger
	now    func() time.Time
}

func New(conf *core.Config, runner Runner, logger core.Logger) *Scheduler {
	loc := conf.Location()
	cl := cronLogger{logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		chain:  cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		spec:   conf.Notification.CronSpec,
		loc:    loc,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the reminder job and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddJob(s.spec, s.chain.Then(cron.FuncJob(s.run))); err != nil {
		return errors.Wrapf(err, "scheduling reminders (%q)", s.spec)
	}
	s.cron.Start()
	s.logger.Info("notification scheduler started", map[string]interface{}{"spec": s.spec, "timezone": s.loc.String()})
	return nil
}

// Stop stops the cron loop and waits for a running job to complete, or ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.runner.Run(ctx, s.now().In(s.loc)); err != nil {
		s.logger.Error("running payment reminders", err)
	}
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func kvMap(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			m[k] = keysAndValues[i+1]
		}
	}
	return m
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}
