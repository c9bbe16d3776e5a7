package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/kurswahl/core"
	"github.com/trezcool/kurswahl/core/assignment"
	"github.com/trezcool/kurswahl/core/operator"
	"github.com/trezcool/kurswahl/core/rule"
	"github.com/trezcool/kurswahl/core/student"
	"github.com/trezcool/kurswahl/core/workshop"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		OperatorSvc   operator.ServiceInterface
		StudentSvc    student.ServiceInterface
		WorkshopSvc   workshop.ServiceInterface
		RuleSvc       rule.ServiceInterface
		AssignmentSvc assignment.ServiceInterface
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *tokenAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newTokenAuth(deps.Conf, deps.OperatorSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.config)
	authed := []echo.MiddlewareFunc{jwt, activeOperatorMiddleware(s.auth)}

	registerOperatorAPI(v1, authed, s.auth, s.deps.OperatorSvc, s.deps.Validate)
	registerStudentAPI(v1, authed, s.deps.StudentSvc, s.deps.AssignmentSvc, s.deps.Validate)
	registerWorkshopAPI(v1, authed, s.deps.WorkshopSvc, s.deps.RuleSvc, s.deps.Validate)
	registerRuleAPI(v1, authed, s.deps.RuleSvc, s.deps.Validate)
	registerSlotAPI(v1, authed, s.deps.AssignmentSvc, s.deps.Validate)
}

// Start blocks until the server stops; a listening failure is reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
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
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
