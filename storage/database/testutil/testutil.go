// Package testutil opens migrated in-memory databases and seeds rows for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/pioneiros/colina/assets"
	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/user"
	logsvc "github.com/pioneiros/colina/services/logger"
	"github.com/pioneiros/colina/storage/database"
)

// PrepareDB returns a fresh, migrated sqlite database closed at the end of the test.
func PrepareDB(t *testing.T) *gorm.DB {
	conf := core.NewTestConfig()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db, conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SQLX shares db's connection with sqlx.
func SQLX(t *testing.T, db *gorm.DB) *sqlx.DB {
	xdb, err := database.NewSQLX(db, core.NewTestConfig())
	if err != nil {
		t.Fatalf("SQLX() failed: %v", err)
	}
	return xdb
}

// Validator returns a validator with every custom tag and translation registered.
func Validator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	club.InitValidators(validate, translator)
	return validate, translator
}

// Logger discards everything.
func Logger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
}

// ParseEmailTemplates loads the embedded email templates with the test config.
func ParseEmailTemplates() {
	core.ParseEmailTemplates(assets.EmailTemplates, assets.EmailTemplatesDir, core.NewTestConfig(), Logger())
}

func create(t *testing.T, db *gorm.DB, value interface{}) {
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T failed: %v", value, err)
	}
}

func CreateUnit(t *testing.T, db *gorm.DB, name string) club.Unit {
	unit := club.Unit{Name: name}
	create(t, db, &unit)
	return unit
}

func CreateMember(t *testing.T, db *gorm.DB, unitID int, name, sgc, role string) club.Member {
	mbr := club.Member{Name: name, UnitID: unitID, SGC: sgc, Role: role}
	create(t, db, &mbr)
	return mbr
}

func CreateMeeting(t *testing.T, db *gorm.DB, name string, date time.Time) club.Meeting {
	mtg := club.Meeting{Name: name, Date: core.Day(date)}
	create(t, db, &mtg)
	return mtg
}

// CreateUser stores a user through repo; an empty pwd leaves the user without a password.
func CreateUser(t *testing.T, repo user.Repository, login, email, sgc, perm, pwd string) user.User {
	usr := user.User{Login: login, Email: email, SGC: sgc, Permission: perm}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// Date is a UTC calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
