package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rederly/client/internal/auth"
	"rederly/client/internal/platform/validation"
)

func (c *cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the landing page",
		Example: `  rederly login --email professor@example.edu
  echo "$PASSWORD" | rederly login --email professor@example.edu`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		creds := auth.Credentials{Email: email}
		if _, err := a.guard.CurrentRole(ctx); err != nil {
			pw, err := c.readPassword(out)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			creds.Password = pw
		}

		res, err := a.auth.Login(ctx, creds)
		var verr *validation.Error
		var lerr *auth.LoginError
		switch {
		case errors.As(err, &verr):
			for _, f := range verr.Fields {
				fmt.Fprintf(out, "%s: %s\n", f.Field, f.Error)
			}
			return errors.New("invalid credentials")
		case errors.As(err, &lerr):
			return lerr
		case err != nil:
			return err
		}

		if res.AlreadySignedIn {
			fmt.Fprintln(out, "Already signed in.")
		} else {
			fmt.Fprintf(out, "Signed in as %s (%s).\n", res.Username, res.Role)
		}
		fmt.Fprintf(out, "Landing: %s\n", res.Landing)
		return nil
	})
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		d := a.guard.PerformLogout(ctx)
		fmt.Fprintf(out, "Signed out. Next: %s\n", d.RedirectTo)
		return nil
	})
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(ctx context.Context, a *app, out io.Writer) error {
		if _, err := a.guard.CurrentRole(ctx); err != nil {
			return err
		}
		s, err := a.store.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (user %d, %s)\n", s.Username, s.UserID, s.Role)
		return nil
	})
	return cmd
}
