package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/dispatch"
)

type sessionOutput struct {
	Authenticated bool             `json:"authenticated"`
	User          *estateauth.User `json:"user,omitempty"`
	View          string           `json:"view"`
	Capabilities  []string         `json:"capabilities,omitempty"`
}

func (a *app) printSession(e *estateauth.Engine) error {
	d, err := dispatch.New(e)
	if err != nil {
		return err
	}

	state := e.State()
	view := dispatch.ViewFor(state)

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(sessionOutput{
		Authenticated: state.IsAuthenticated,
		User:          state.User,
		View:          view.String(),
		Capabilities:  d.Capabilities(view),
	})
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeEngine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			if err := engine.Login(cmd.Context(), estateauth.LoginCredentials{Email: email, Password: password}); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			return a.printSession(engine)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var data estateauth.RegisterData
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := estateauth.ParseRole(role)
			if err != nil {
				return err
			}
			data.Role = r
			if data.ConfirmPassword == "" {
				data.ConfirmPassword = data.Password
			}
			if err := data.Validate(); err != nil {
				return err
			}

			engine, _, closeEngine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			if err := engine.Register(cmd.Context(), data); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			return a.printSession(engine)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&data.Name, "name", "", "display name")
	flags.StringVar(&data.Email, "email", "", "account email")
	flags.StringVar(&data.Password, "password", "", "account password")
	flags.StringVar(&data.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	flags.StringVar(&role, "role", "visitor", "visitor, agent or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeEngine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			engine.Logout(cmd.Context())
			return a.printSession(engine)
		},
	}
}

var errNotSignedIn = errors.New("not signed in")

func newWhoamiCommand(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the recovered session and its dashboard view",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeEngine, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine()

			if err := a.printSession(engine); err != nil {
				return err
			}
			if strict && !engine.State().IsAuthenticated {
				return errNotSignedIn
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when no session is persisted")
	return cmd
}
