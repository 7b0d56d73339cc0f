package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var login, sgc, perm, email string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update a user; the password is prompted next",
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" || sgc == "" || perm == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(login, sgc, perm, email, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %q saved (id %d)\n", usr.Login, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "the user's login")
	cmd.Flags().StringVar(&sgc, "sgc", "", "SGC code of the user's member")
	cmd.Flags().StringVar(&perm, "permission", "", fmt.Sprintf("one of %v", user.AllPermissions))
	cmd.Flags().StringVar(&email, "email", "", "optional email, used for password resets")
	return cmd
}

// addUser updates the user with that login, or creates it.
func (cli *commandLine) addUser(login, sgc, perm, email, pwd string) (user.User, error) {
	ctx := context.Background()
	login = core.CleanString(login, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	sgc = core.CleanString(sgc)
	perm = core.CleanString(perm, true /* lower */)

	if !user.IsPermission(perm) {
		return user.User{}, fmt.Errorf("unknown permission %q", perm)
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Login: login})
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return user.User{}, err
	}
	if err = cli.usrRepo.CheckUniqueness(ctx, login, sgc, usr.ID); err != nil {
		return user.User{}, err
	}

	usr.Login = login
	usr.SGC = sgc
	usr.Permission = perm
	if email != "" {
		usr.Email = email
	}
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}
	if exists {
		return cli.usrRepo.UpdateUser(ctx, usr)
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
