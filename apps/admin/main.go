package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/club"
	"github.com/pioneiros/colina/core/progress"
	"github.com/pioneiros/colina/core/user"
	emailsvc "github.com/pioneiros/colina/services/email"
	logsvc "github.com/pioneiros/colina/services/logger"
	spreadsheetsvc "github.com/pioneiros/colina/services/spreadsheet"
	"github.com/pioneiros/colina/storage/database"
	gormrepos "github.com/pioneiros/colina/storage/database/gorm"
)

var logger core.Logger

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger = logsvc.NewRollbarLogger(stdLogger, conf)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	sqlDB, err := db.DB()
	errAndDie(err)
	defer sqlDB.Close()

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	club.InitValidators(validate, translator)

	usrRepo := gormrepos.NewUserRepository(db)
	clubSvc := club.NewService(gormrepos.NewClubRepository(db), validate)

	// start CLI
	cli := commandLine{
		db:      db,
		conf:    conf,
		out:     os.Stdout,
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, clubSvc, emailsvc.NewService(conf, logger), validate, conf),
		progressSvc: progress.NewService(
			gormrepos.NewProgressRepository(db), clubSvc, spreadsheetsvc.NewExcel(), validate,
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		sqlDB.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
