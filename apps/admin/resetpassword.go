package main

import (
	"context"

	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var login string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password; the new one is prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.usrSvc.SetPassword(context.Background(), login, pwd)
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "the user's login")
	return cmd
}
