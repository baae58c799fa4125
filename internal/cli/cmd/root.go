package cmd

import (
	"fmt"
	"os"

	"github.com/noticeboard/backend/internal/cli/api"
	"github.com/noticeboard/backend/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string

	cfg       *config.Config
	apiClient *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "noticectl",
	Short: "Manage noticeboard groups and notices from the terminal",
	Long: `noticectl administers an organization's notice groups: create groups and
their access codes, publish notices, and read a feed the way viewers see it.

Get started:
  noticectl login --email admin@example.com
  noticectl groups create "Batch 2024" --code B24
  noticectl publish B24 --title "Exam Dates" --tag Urgent
  noticectl feed B24`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		apiClient = api.NewClient(cfg.ServerURL, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func requireAuth() error {
	if cfg == nil || !cfg.HasToken() {
		return fmt.Errorf("not authenticated, run \"noticectl login\" first")
	}
	return nil
}
