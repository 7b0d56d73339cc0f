package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/attendance"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/documents"
	"github.com/pioneiros/colina/core/inventory"
	"github.com/pioneiros/colina/core/minutes"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/treasury"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
	"github.com/pioneiros/colina/storage/database/migrations"
)

// Models lists the tables managed by gorm AutoMigrate on the embedded engine.
func Models() []interface{} {
	return []interface{}{
		&club.Unit{},
		&club.Member{},
		&club.Meeting{},
		&gormrepos.UserRow{},
		&attendance.Attendance{},
		&progress.Class{},
		&progress.Specialty{},
		&progress.MemberClass{},
		&progress.MemberSpecialty{},
		&treasury.Event{},
		&treasury.Dues{},
		&treasury.MemberDues{},
		&treasury.Enrollment{},
		&treasury.CashEntry{},
		&treasury.Closing{},
		&inventory.Asset{},
		&inventory.Request{},
		&minutes.Minute{},
		&minutes.Act{},
		&documents.Requirement{},
		&documents.Delivery{},
	}
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func openPostgres(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	return sql.Open("postgres", postgresDSN(dbName, admin, conf))
}

func gormConfig(conf *core.Config) *gorm.Config {
	level := logger.Warn
	switch {
	case conf.TestMode:
		level = logger.Silent
	case conf.Debug:
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}

// Open connects to the configured engine and waits for it to answer.
func Open(conf *core.Config) (*gorm.DB, error) {
	if conf.Database.IsSQLite() {
		db, err := gorm.Open(sqlite.Open(conf.Database.Path), gormConfig(conf))
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		// sqlite allows a single writer; an in-memory database also lives in one connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		return db, nil
	}

	sqlDB, err := openPostgres(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(sqlDB); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return db, nil
}

// NewSQLX shares the gorm connection pool with sqlx, for the aggregate queries.
func NewSQLX(db *gorm.DB, conf *core.Config) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql.DB")
	}
	driver := "postgres"
	if conf.Database.IsSQLite() {
		driver = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, driver), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sql.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	err := db.QueryRow(query, args...).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return found, err
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf(
			"CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
			pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password),
		)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sql.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the app user and database on a Postgres server. The sqlite file is created on open.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.IsSQLite() {
		return nil
	}

	// connect as admin
	db, err := openPostgres("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return err
	}

	// create DB as app user
	appDB, err := openPostgres("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(appDB, conf)
}

// RunMigrations runs a goose command against the embedded SQL migrations.
func RunMigrations(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.Run(command, db, ".", args...)
}

// Migrate brings the schema up to date: goose migrations on Postgres, AutoMigrate on sqlite.
func Migrate(db *gorm.DB, conf *core.Config) error {
	if conf.Database.IsSQLite() {
		if err := db.AutoMigrate(Models()...); err != nil {
			return errors.Wrap(err, "migrating database")
		}
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB")
	}
	if err = RunMigrations(sqlDB, "up"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
