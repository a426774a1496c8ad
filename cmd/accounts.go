package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"property-portal/internal/model"
	"property-portal/internal/service"
)

var (
	agencyName string

	userAuthID   string
	userEmail    string
	userName     string
	userRole     string
	userAgencyID string
)

var agencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Manage agencies",
}

var agencyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an agency",
	Long: `Register an agency and print it as JSON.

Examples:
  portal agency create --name "Casa Norte"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, closeFn, err := accountService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		a, err := accounts.CreateAgency(cmd.Context(), agencyName)
		if err != nil {
			return err
		}
		return printJSON(cmd, a)
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user for an identity provider subject",
	Long: `Register a user and print it as JSON. Agents and agency admins need
--agency; super admins must not have one.

Examples:
  portal user create --auth-id 6f1c... --email root@example.com --role SUPER_ADMIN
  portal user create --auth-id 91ab... --email ana@casanorte.co --role AGENT --agency <id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, closeFn, err := accountService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		u, err := accounts.CreateUser(cmd.Context(), service.NewUser{
			AuthID:   userAuthID,
			Email:    userEmail,
			Name:     userName,
			Role:     model.Role(strings.ToUpper(userRole)),
			AgencyID: userAgencyID,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, u)
	},
}

func init() {
	agencyCreateCmd.Flags().StringVar(&agencyName, "name", "", "Agency name")
	_ = agencyCreateCmd.MarkFlagRequired("name")
	agencyCmd.AddCommand(agencyCreateCmd)

	userCreateCmd.Flags().StringVar(&userAuthID, "auth-id", "", "Identity provider subject (JWT sub)")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(model.RoleAgent), "SUPER_ADMIN, AGENCY_ADMIN or AGENT")
	userCreateCmd.Flags().StringVar(&userAgencyID, "agency", "", "Agency id for agents and agency admins")
	_ = userCreateCmd.MarkFlagRequired("auth-id")
	_ = userCreateCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userCreateCmd)
}

func accountService(cmd *cobra.Command) (*service.AccountService, func(), error) {
	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewAccountService(st.Users, st.Agencies), func() { _ = st.Close() }, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
