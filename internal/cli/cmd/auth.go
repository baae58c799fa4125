package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/noticeboard/backend/internal/cli/api"
	"github.com/noticeboard/backend/internal/cli/config"
	"github.com/noticeboard/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagEmail    string
	flagPassword string
	flagOrgName  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as an organization",
	Long: `Sign in with the organization's email and password. The session token is
stored in the user config directory.

  noticectl login --email admin@example.com
  noticectl login --email admin@example.com --register --org "Greenfield School"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(flagEmail)
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		password := flagPassword
		if password == "" {
			fmt.Fprint(output.Out, "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		register, _ := cmd.Flags().GetBool("register")
		var resp api.Response[api.Session]
		var err error
		if register {
			err = apiClient.Post("/auth/register", map[string]string{
				"name":     flagOrgName,
				"email":    email,
				"password": password,
			}, &resp)
		} else {
			err = apiClient.Post("/auth/login", map[string]string{
				"email":    email,
				"password": password,
			}, &resp)
		}
		if err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Status == 401 {
				return fmt.Errorf("invalid email or password")
			}
			return err
		}

		cfg.Token = resp.Data.Token
		cfg.OrgName = resp.Data.Organization.Name
		cfg.OrgEmail = resp.Data.Organization.Email
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(output.Out, "Logged in as %s (%s)\n", cfg.OrgName, cfg.OrgEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Clear(); err != nil {
			return fmt.Errorf("clearing config: %w", err)
		}
		fmt.Fprintln(output.Out, "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		var resp api.Response[api.Organization]
		if err := apiClient.Get("/auth/me", nil, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.OrgInfo(resp.Data)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Organization email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Password (prompted when omitted)")
	loginCmd.Flags().Bool("register", false, "Create the organization first")
	loginCmd.Flags().StringVar(&flagOrgName, "org", "", "Organization name when registering")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
