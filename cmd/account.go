package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	"github.com/frahmantamala/asset-portal/internal/session"
)

var (
	loginUser     string
	loginPassword string

	passwdFirstName string
	passwdLastName  string
	passwdEmail     string
	passwdAddress   string
	passwdNew       bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if loginUser == "" {
			if loginUser, err = promptLine(cmd, "User name: "); err != nil {
				return err
			}
		}
		if loginPassword == "" {
			if loginPassword, err = promptSecret(cmd, "Password: "); err != nil {
				return err
			}
		}

		me, err := deps.Sessions.Login(ctx, loginUser, loginPassword)
		if err != nil {
			return err
		}
		return renderIdentity(cmd, me, deps.Sessions.State().Privileges)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		deps.Sessions.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in identity and its active privileges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		st, err := deps.restoreSession(ctx)
		if err != nil {
			return err
		}
		return renderIdentity(cmd, st.Identity, st.Privileges)
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Update profile fields and optionally the password",
	Long:  `Update the signed in identity. The current password is always required; only the flags given are changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if _, err := deps.restoreSession(ctx); err != nil {
			return err
		}

		patch, err := buildPatch(cmd)
		if err != nil {
			return err
		}
		updated, err := deps.Sessions.UpdateCredentials(ctx, patch)
		if err != nil {
			return err
		}
		return renderIdentity(cmd, updated, deps.Sessions.State().Privileges)
	},
}

func buildPatch(cmd *cobra.Command) (session.CredentialsPatch, error) {
	current, err := promptSecret(cmd, "Current password: ")
	if err != nil {
		return session.CredentialsPatch{}, err
	}
	patch := session.CredentialsPatch{CurrentPassword: current}

	flags := cmd.Flags()
	if flags.Changed("first-name") {
		patch.FirstName = &passwdFirstName
	}
	if flags.Changed("last-name") {
		patch.LastName = &passwdLastName
	}
	if flags.Changed("email") {
		patch.Email = &passwdEmail
	}
	if flags.Changed("address") {
		patch.Address = &passwdAddress
	}
	if passwdNew {
		next, err := promptSecret(cmd, "New password: ")
		if err != nil {
			return patch, err
		}
		again, err := promptSecret(cmd, "Repeat new password: ")
		if err != nil {
			return patch, err
		}
		if next != again {
			return patch, fmt.Errorf("passwords do not match")
		}
		patch.NewPassword = &next
	}
	return patch, nil
}

type identityView struct {
	identity.Identity `yaml:",inline"`
	RoleLabel          string   `json:"roleLabel" yaml:"roleLabel"`
	Privileges         []string `json:"privileges" yaml:"privileges"`
}

func renderIdentity(cmd *cobra.Command, id *identity.Identity, privileges []string) error {
	view := identityView{Identity: *id, RoleLabel: auth.RoleLabel(id.PrimaryRole()), Privileges: privileges}
	tbl := &table{header: []string{"ID", "USER", "NAME", "ROLE", "PRIVILEGES"}}
	tbl.add(strconv.FormatInt(id.ID, 10), id.UserName, id.FullName(), view.RoleLabel, strings.Join(privileges, ","))
	return render(cmd.OutOrStdout(), view, tbl)
}

var (
	promptSource io.Reader
	promptReader *bufio.Reader
)

// promptLine reads one line. Successive prompts share a reader so piped input is not lost.
func promptLine(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if in := cmd.InOrStdin(); promptSource != in {
		promptSource = in
		promptReader = bufio.NewReader(in)
	}
	line, err := promptReader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(cmd *cobra.Command, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), label)
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return promptLine(cmd, label)
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "user name")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")

	passwdCmd.Flags().StringVar(&passwdFirstName, "first-name", "", "new first name")
	passwdCmd.Flags().StringVar(&passwdLastName, "last-name", "", "new last name")
	passwdCmd.Flags().StringVar(&passwdEmail, "email", "", "new email address")
	passwdCmd.Flags().StringVar(&passwdAddress, "address", "", "new postal address")
	passwdCmd.Flags().BoolVar(&passwdNew, "new-password", false, "prompt for a new password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, passwdCmd)
}
