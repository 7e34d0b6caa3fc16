package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/progresskeeper/internal/identity"
)

// localTokenValidity is the lifetime of tokens issued by "login --user".
const localTokenValidity = 30 * 24 * time.Hour

func newLoginCommand(r *runtime) *cobra.Command {
	var token, user string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the session token of the current user",
		Long: `Store the session token of the current user.

The token is read from --token, or prompted for without echo. With --user
and a configured JWT secret (-j) a token is issued locally instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}

			if user != "" {
				if r.cfg.JWTSecret == "" {
					return errors.New("--user needs a JWT secret (-j)")
				}
				token, err = identity.GenerateToken(user, []byte(r.cfg.JWTSecret), localTokenValidity)
				if err != nil {
					return err
				}
			}

			if token == "" {
				token, err = r.readToken(cmd)
				if err != nil {
					return err
				}
			}

			userID, err := a.Session.Login(ctx, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token")
	cmd.Flags().StringVar(&user, "user", "", "issue a local token for this user id")
	return cmd
}

func (r *runtime) readToken(cmd *cobra.Command) (string, error) {
	if r.interactive {
		return GetSecret("Session token", cmd.ErrOrStderr())
	}
	return GetSimpleText(r.in, "Session token", cmd.ErrOrStderr())
}

func newLogoutCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			if err := a.Session.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := r.withTimeout(cmd.Context())
			defer cancel()

			a, err := r.open(ctx)
			if err != nil {
				return err
			}
			userID, err := a.Session.CurrentUserID(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), userID)
			return nil
		},
	}
}
