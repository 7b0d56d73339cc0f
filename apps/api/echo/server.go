package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/documents"
	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/minutes"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/report"
	"github.com/pioneiros/colina/core/treasury"
	"github.com/pioneiros/colina/core/user"
)

type Options struct {
	Conf           *core.Config
	Logger         core.Logger
	Validate       *validator.Validate
	Translator     ut.Translator
	DisableReqLogs bool

	UserSvc       user.Service
	ClubSvc       *club.Service
	AttendanceSvc *attendance.Service
	ProgressSvc   *progress.Service
	TreasurySvc   *treasury.Service
	InventorySvc  *inventory.Service
	MinutesSvc    *minutes.Service
	DocumentsSvc  *documents.Service
	ReportSvc     *report.Service
}

type Server struct {
	opts     *Options
	app      *echo.Echo
	auth     *authenticator
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		auth:     newAuthenticator(opts.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc, s.opts.Validate)
	registerClubAPI(v1, jwt, s.opts.ClubSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc)
	registerProgressAPI(v1, jwt, s.opts.ProgressSvc)
	registerTreasuryAPI(v1, jwt, s.opts.TreasurySvc)
	registerInventoryAPI(v1, jwt, s.opts.InventorySvc)
	registerMinutesAPI(v1, jwt, s.opts.MinutesSvc)
	registerDocumentsAPI(v1, jwt, s.opts.DocumentsSvc)
	registerReportAPI(v1, jwt, s.opts.ReportSvc)
}

// Start listens on the configured address. Listener failures are sent on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bem-vindo à API "+s.opts.Conf.AppName+"!")
}
