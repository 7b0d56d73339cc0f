package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pioneiros/colina/core/progress"
)

func (cli *commandLine) importSpecialtiesCmd() *cobra.Command {
	var update bool
	cmd := &cobra.Command{
		Use:   "import-especialidades FILE.xlsx",
		Short: `Import specialties from a spreadsheet with "codigo" and "nome" columns`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Usage()
				return errHelp
			}
			res, err := cli.importSpecialties(args[0], update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "created: %d, updated: %d, skipped: %d, invalid: %d\n",
				res.Created, res.Updated, res.Skipped, res.Invalid)
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "rename specialties whose code already exists")
	return cmd
}

func (cli *commandLine) importSpecialties(path string, update bool) (progress.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return progress.ImportResult{}, errors.Wrap(err, "opening spreadsheet")
	}
	defer f.Close()
	return cli.progressSvc.Import(context.Background(), progress.KindSpecialty, f, update)
}
