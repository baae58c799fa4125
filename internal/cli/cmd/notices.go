package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/noticeboard/backend/internal/cli/api"
	"github.com/noticeboard/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagTitle string
	flagBody  string
	flagTag   string
	flagImage string
)

var publishCmd = &cobra.Command{
	Use:   "publish <code|id>",
	Short: "Publish a notice to one of your groups",
	Long: `Publish a notice. Tags are General (default), Urgent, Holiday and Event.

  noticectl publish B24 --title "Exam Dates" --tag Urgent
  noticectl publish B24 --title "Sports day" --image poster.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		if strings.TrimSpace(flagTitle) == "" {
			return fmt.Errorf("--title is required")
		}

		group, err := findGroup(args[0])
		if err != nil {
			return err
		}

		fields := map[string]string{
			"title": flagTitle,
			"body":  flagBody,
			"tag":   flagTag,
		}
		var resp api.Response[api.Notice]
		if err := apiClient.PostMultipart("/groups/"+group.ID+"/notices", fields, "image", flagImage, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Fprintf(output.Out, "Published %q to %s\n", resp.Data.Title, group.AccessCode)
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed <code>",
	Short: "Read a group's notices as a viewer would",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		viewer := api.NewClient(cfg.ServerURL, "")
		var resp api.Response[api.Feed]
		if err := viewer.Get("/access/"+url.PathEscape(strings.TrimSpace(args[0]))+"/notices", nil, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Fprintf(output.Out, "%s (%s)\n\n", resp.Data.Group.Name, resp.Data.Group.AccessCode)
		output.NoticeList(resp.Data.Notices)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&flagTitle, "title", "", "Notice title")
	publishCmd.Flags().StringVar(&flagBody, "body", "", "Notice body")
	publishCmd.Flags().StringVar(&flagTag, "tag", "", "General, Urgent, Holiday or Event")
	publishCmd.Flags().StringVar(&flagImage, "image", "", "Path to an image to attach")
	rootCmd.AddCommand(publishCmd, feedCmd)
}
