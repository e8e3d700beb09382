package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/asset-portal/internal/auth"
	assetmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/identity"
	privilegemodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/privilege"
	"github.com/frahmantamala/asset-portal/internal/privilege"
)

var (
	grantStart string
	grantEnd   string
)

var privilegesCmd = &cobra.Command{
	Use:   "privileges",
	Short: "Inspect and change privilege grants",
}

var privilegesListCmd = &cobra.Command{
	Use:   "list <userID>",
	Short: "List a user's grants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if _, err := deps.restoreSession(ctx); err != nil {
			return err
		}
		grants, err := deps.Privileges.List(ctx, userID)
		if err != nil {
			return err
		}
		return renderGrants(cmd, grants)
	},
}

var privilegesAssignCmd = &cobra.Command{
	Use:   "assign <userID> <privilegeID>",
	Short: "Grant a privilege, optionally bounded by --start and --end",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		privilegeID, err := parseID(args[1])
		if err != nil {
			return err
		}
		dto := privilege.AssignDTO{UserID: userID, PrivilegeID: privilegeID}
		if dto.StartDate, err = parseDate("start", grantStart); err != nil {
			return err
		}
		if dto.EndDate, err = parseDate("end", grantEnd); err != nil {
			return err
		}

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
		grants, err := deps.Privileges.Assign(ctx, st, dto)
		if err != nil {
			return err
		}
		return renderGrants(cmd, grants)
	},
}

var privilegesRevokeCmd = &cobra.Command{
	Use:   "revoke <userID> <privilegeID>",
	Short: "Remove a privilege grant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		privilegeID, err := parseID(args[1])
		if err != nil {
			return err
		}

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
		grants, err := deps.Privileges.Revoke(ctx, st, userID, privilegeID)
		if err != nil {
			return err
		}
		return renderGrants(cmd, grants)
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "User administration",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
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
		users, err := deps.Users.List(ctx, st)
		if err != nil {
			return err
		}

		acting := st.Identity.PrimaryRole()
		tbl := &table{header: []string{"ID", "USER", "NAME", "EMAIL", "ROLE", "CHANGEABLE"}}
		for _, u := range users {
			tbl.add(
				strconv.FormatInt(u.ID, 10),
				u.UserName,
				u.FullName(),
				u.Email,
				auth.RoleLabel(u.PrimaryRole()),
				strconv.FormatBool(auth.CanChangeRole(acting, u.PrimaryRole())),
			)
		}
		return render(cmd.OutOrStdout(), users, tbl)
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <userID> <ROLE>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		role := identity.RoleName(args[1])

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
		if err := deps.Users.ChangeRole(ctx, st, userID, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %d is now %s.\n", userID, auth.RoleLabel(role))
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <userID>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}

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
		if err := deps.Users.Delete(ctx, st, userID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted.\n", userID)
		return nil
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Asset lifecycle",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
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
		assets, err := deps.Assets.List(ctx)
		if err != nil {
			return err
		}

		tbl := &table{header: []string{"ID", "SERIAL", "STATUS", "ASSIGNED TO", "LOCATION", "APPROVED"}}
		for _, a := range assets {
			assigned := "-"
			if a.AssignedTo > 0 {
				assigned = strconv.FormatInt(a.AssignedTo, 10)
			}
			tbl.add(strconv.FormatInt(a.ID, 10), a.SerialNumber, string(a.Status), assigned, a.Location, strconv.FormatBool(a.Approved))
		}
		return render(cmd.OutOrStdout(), assets, tbl)
	},
}

var assetsStatusCmd = &cobra.Command{
	Use:   `status <assetID> <"In Service"|"In Maintenance"|Replaced|Scrap>`,
	Short: "Move an asset to another lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		assetID, err := parseID(args[0])
		if err != nil {
			return err
		}
		status := assetmodel.Status(args[1])

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
		if err := deps.Assets.UpdateStatus(ctx, st, assetID, status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Asset %d is now %s.\n", assetID, status)
		return nil
	},
}

func renderGrants(cmd *cobra.Command, grants []privilegemodel.Grant) error {
	now := time.Now()
	tbl := &table{header: []string{"USER", "PRIVILEGE", "NAME", "FROM", "UNTIL", "ACTIVE"}}
	for _, g := range grants {
		tbl.add(
			strconv.FormatInt(g.UserID, 10),
			strconv.FormatInt(g.PrivilegeID, 10),
			g.PrivilegeName,
			formatDate(g.StartDate),
			formatDate(g.EndDate),
			strconv.FormatBool(g.ActiveAt(now)),
		)
	}
	return render(cmd.OutOrStdout(), grants, tbl)
}

func parseDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q, want YYYY-MM-DD: %w", name, value, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func init() {
	privilegesAssignCmd.Flags().StringVar(&grantStart, "start", "", "first day the grant is active, YYYY-MM-DD")
	privilegesAssignCmd.Flags().StringVar(&grantEnd, "end", "", "last day the grant is active, YYYY-MM-DD")

	privilegesCmd.AddCommand(privilegesListCmd, privilegesAssignCmd, privilegesRevokeCmd)
	usersCmd.AddCommand(usersListCmd, usersRoleCmd, usersDeleteCmd)
	assetsCmd.AddCommand(assetsListCmd, assetsStatusCmd)
	rootCmd.AddCommand(privilegesCmd, usersCmd, assetsCmd)
}
