package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/aquaflow/core"
	"github.com/trezcool/aquaflow/core/instructor"
	"github.com/trezcool/aquaflow/core/payment"
	"github.com/trezcool/aquaflow/core/plan"
	"github.com/trezcool/aquaflow/core/schedule"
	"github.com/trezcool/aquaflow/core/student"
	"github.com/trezcool/aquaflow/core/user"
)

const healthTimeout = 2 * time.Second

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		DBCheck       func(ctx context.Context) error
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       *user.Service
		StudentSvc    *student.Service
		PaymentSvc    *payment.Service
		ScheduleSvc   *schedule.Service
		PlanSvc       *plan.Service
		InstructorSvc *instructor.Service
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		tokens   *TokenIssuer
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		tokens:     NewTokenIssuer(deps.Conf),
		shutdown:   make(chan os.Signal, 1),
		errors:     make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowedOrigins}))

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(s.tokens.jwtConfig())
	ctxUser := contextUserMiddleware(s.UserSvc)
	authed := []echo.MiddlewareFunc{jwt, ctxUser}
	staff := []echo.MiddlewareFunc{jwt, ctxUser, roleMiddleware(user.StaffRoles...)}
	admin := []echo.MiddlewareFunc{jwt, ctxUser, roleMiddleware(user.RoleAdmin)}

	registerAuthAPI(api, s.tokens, s.UserSvc, s.Validate, loginRateLimiter(conf.Server.LoginRateLimit), authed)
	registerUserAPI(api.Group("/users", admin...), s.UserSvc, s.Validate)
	registerStudentAPI(api.Group("/alunos", staff...), s.StudentSvc, s.PaymentSvc, s.Validate, conf.Location())
	registerPaymentAPI(api.Group("/pagamentos", staff...), s.PaymentSvc, s.Validate)
	registerScheduleAPI(api.Group("/horarios", staff...), s.ScheduleSvc, s.Validate)
	registerPlanAPI(api.Group("/planos", staff...), s.PlanSvc, s.Validate)
	registerInstructorAPI(api.Group("/professores", staff...), s.InstructorSvc, s.Validate)
}

func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports a server that stopped listening unexpectedly.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal reports OS interrupts and shutdowns requested by core.IsShutdown errors.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // shutdown already requested
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Bem-vindo à API " + s.Conf.AppName + "!",
		"version": s.Conf.Build,
	})
}

func (s *Server) health(ctx echo.Context) error {
	c, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	if err := s.DBCheck(c); err != nil {
		s.Logger.Error("health check failed", errors.Wrap(err, "pinging database"))
		return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy", "database": "unreachable"})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "healthy", "database": "ok"})
}
