package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pioneiros/colina/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run database migrations",
		Long: `Run a goose command against the embedded migrations:
  up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status, version, fix, create NAME [go|sql].
On sqlite the schema comes from the models and only "up" is available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args[0], args[1:])
		},
	}
}

func (cli *commandLine) migrate(command string, args []string) error {
	if cli.conf.Database.IsSQLite() {
		if command != "up" {
			return fmt.Errorf("%q: not supported on sqlite", command)
		}
		return database.Migrate(cli.db, cli.conf)
	}
	sqlDB, err := cli.db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB")
	}
	return gooseRunFunc(sqlDB, command, args...)
}
