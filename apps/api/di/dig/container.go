package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"gorm.io/gorm"

	echoapi "github.com/pioneiros/colina/apps/api/echo"
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
	emailsvc "github.com/pioneiros/colina/services/email"
	logsvc "github.com/pioneiros/colina/services/logger"
	spreadsheetsvc "github.com/pioneiros/colina/services/spreadsheet"
	"github.com/pioneiros/colina/storage/database"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	sqlxrepos "github.com/pioneiros/colina/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	if conf.Debug {
		logger.Enable(false)
	}
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	if conf.Debug {
		logger.Enable(false)
	}
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *gorm.DB {
	setUp := func() (*gorm.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf); err != nil {
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// Lookups

func newClubLookups(svc *club.Service) (
	user.MemberFinder,
	attendance.Lookup,
	progress.MemberFinder,
	treasury.Members,
	inventory.Lookup,
	minutes.Lookup,
) {
	return svc, svc, svc, svc, svc, svc
}

// documentsLookup resolves events through the treasury and members through the club.
type documentsLookup struct {
	*club.Service
	events *treasury.Service
}

func (l documentsLookup) GetEvent(ctx context.Context, id int) (treasury.Event, error) {
	return l.events.GetEvent(ctx, id)
}

func newDocumentsLookup(clubSvc *club.Service, treasurySvc *treasury.Service) documents.Lookup {
	return documentsLookup{Service: clubSvc, events: treasurySvc}
}

func newAttendanceReporter(svc *attendance.Service) report.AttendanceReporter {
	return svc
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		ClubSvc:       p.ClubSvc,
		AttendanceSvc: p.AttendanceSvc,
		ProgressSvc:   p.ProgressSvc,
		TreasurySvc:   p.TreasurySvc,
		InventorySvc:  p.InventorySvc,
		MinutesSvc:    p.MinutesSvc,
		DocumentsSvc:  p.DocumentsSvc,
		ReportSvc:     p.ReportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(spreadsheetsvc.NewExcel, dig.As(new(report.Writer), new(progress.RowReader))))

	// storage
	must(c.Provide(newDB))
	must(c.Provide(database.NewSQLX))
	must(c.Provide(gormrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(gormrepos.NewClubRepository, dig.As(new(club.Repository))))
	must(c.Provide(gormrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(gormrepos.NewProgressRepository, dig.As(new(progress.Repository))))
	must(c.Provide(gormrepos.NewTreasuryRepository, dig.As(new(treasury.Repository))))
	must(c.Provide(gormrepos.NewInventoryRepository, dig.As(new(inventory.Repository))))
	must(c.Provide(gormrepos.NewMinutesRepository, dig.As(new(minutes.Repository))))
	must(c.Provide(gormrepos.NewDocumentsRepository, dig.As(new(documents.Repository))))
	must(c.Provide(sqlxrepos.NewStatsRepository, dig.As(new(attendance.StatsRepository))))
	must(c.Provide(sqlxrepos.NewTreasuryReports, dig.As(new(treasury.ReportRepository))))
	must(c.Provide(sqlxrepos.NewReportRepository, dig.As(new(report.Repository))))

	// services
	must(c.Provide(club.NewService))
	must(c.Provide(newClubLookups))
	must(c.Provide(user.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(newAttendanceReporter))
	must(c.Provide(progress.NewService))
	must(c.Provide(treasury.NewService))
	must(c.Provide(inventory.NewService))
	must(c.Provide(minutes.NewService))
	must(c.Provide(newDocumentsLookup))
	must(c.Provide(documents.NewService))
	must(c.Provide(report.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
