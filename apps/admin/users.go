package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

// addUser creates a local account, or reactivates the account holding email with a new password.
func (cli *commandLine) addUser(name, email, pwd string) error {
	if cli.conf.Auth.Provider != core.AuthLocal {
		return errLocalOnly
	}
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return err
	}
	if name == "" {
		name = usr.Name
	}

	nu := user.NewUser{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd}
	if err = nu.Validate(cli.validate); err != nil {
		return errors.New(cli.describe(err))
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	usr.Name = nu.Name
	usr.Email = nu.Email
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		usr.CreatedAt = now
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "created user %s (%s)\n", usr.Email, usr.ID)
		return nil
	}
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "updated user %s (%s)\n", usr.Email, usr.ID)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	if cli.conf.Auth.Provider != core.AuthLocal {
		return errLocalOnly
	}
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}

	rp := user.ResetUserPassword{Token: "-", UID: usr.ID, Password: pwd, PasswordConfirm: pwd}
	if err = rp.Validate(cli.validate); err != nil {
		return errors.New(cli.describe(err))
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s has been reset\n", usr.Email)
	return nil
}
