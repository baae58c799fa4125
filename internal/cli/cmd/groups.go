package cmd

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/noticeboard/backend/internal/cli/api"
	"github.com/noticeboard/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagCode  string
	flagForce bool
)

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"group"},
	Short:   "Manage notice groups",
}

var groupsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your groups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		groups, err := listGroups()
		if err != nil {
			return err
		}
		if flagJSON {
			output.JSON(groups)
			return nil
		}
		output.GroupTable(groups)
		return nil
	},
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Long: `Create a group. Without --code a code is suggested from the organization
and group names.

  noticectl groups create "Class 10"
  noticectl groups create "Batch 2024" --code B24`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		code := flagCode
		if strings.TrimSpace(code) == "" {
			suggestion, err := suggestCode(args[0])
			if err != nil {
				return err
			}
			if suggestion.Code == "" {
				return fmt.Errorf("no code could be suggested for %q, pass --code", args[0])
			}
			if !suggestion.Available {
				return fmt.Errorf("suggested code %s is taken, pass --code", suggestion.Code)
			}
			code = suggestion.Code
		}

		var resp api.Response[api.Group]
		if err := apiClient.Post("/groups/", map[string]string{"name": args[0], "code": code}, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Fprintf(output.Out, "Created %s with access code %s\n", resp.Data.Name, resp.Data.AccessCode)
		return nil
	},
}

var groupsBulkCmd = &cobra.Command{
	Use:   "bulk <file.csv>",
	Short: "Create several groups at once from name,code rows",
	Long: `Create several groups in one all-or-nothing request. Each CSV row holds a
name and a code; rows missing either are skipped. Use "-" to read stdin.

  noticectl groups bulk classes.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		entries, err := readBulkEntries(in)
		if err != nil {
			return err
		}

		var resp api.Response[api.BulkResult]
		if err := apiClient.Post("/groups/bulk", map[string]any{"groups": entries}, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Fprintf(output.Out, "Created %d group(s)\n", resp.Data.Count)
		output.GroupTable(resp.Data.Groups)
		return nil
	},
}

var groupsRmCmd = &cobra.Command{
	Use:   "rm <code|id>",
	Short: "Delete a group and all of its notices",
	Long: `Delete a group. Every notice in it is removed too and viewers holding the
code lose access. This cannot be undone.

  noticectl groups rm B24
  noticectl groups rm B24 --force      Skip confirmation`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		group, err := findGroup(args[0])
		if err != nil {
			return err
		}

		if !flagForce {
			fmt.Fprintf(output.Out, "Delete group %q (%s) and all of its notices? This cannot be undone. [y/N] ", group.Name, group.AccessCode)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(output.Out, "Cancelled.")
				return nil
			}
		}

		var resp api.Response[api.Deletion]
		if err := apiClient.Delete("/groups/"+group.ID, url.Values{"confirm": {"true"}}, &resp); err != nil {
			return err
		}
		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Fprintf(output.Out, "Deleted %s (%d notice(s) removed)\n", resp.Data.Group.Name, resp.Data.NoticesRemoved)
		return nil
	},
}

var groupsSuggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "Suggest an access code for a group name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}
		suggestion, err := suggestCode(args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			output.JSON(suggestion)
			return nil
		}
		switch {
		case suggestion.Code == "":
			fmt.Fprintln(output.Out, "No suggestion, pick a code manually.")
		case suggestion.Available:
			fmt.Fprintln(output.Out, suggestion.Code)
		default:
			fmt.Fprintf(output.Out, "%s (taken)\n", suggestion.Code)
		}
		return nil
	},
}

func listGroups() ([]api.Group, error) {
	var resp api.Response[[]api.Group]
	if err := apiClient.Get("/groups/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func suggestCode(name string) (api.Suggestion, error) {
	var resp api.Response[api.Suggestion]
	err := apiClient.Get("/groups/suggest-code", url.Values{"name": {name}}, &resp)
	return resp.Data, err
}

// findGroup matches an owned group by access code or id.
func findGroup(ref string) (*api.Group, error) {
	groups, err := listGroups()
	if err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	for i := range groups {
		if strings.EqualFold(groups[i].AccessCode, ref) || groups[i].ID == ref {
			return &groups[i], nil
		}
	}
	return nil, fmt.Errorf("no group of yours matches %q", ref)
}

func readBulkEntries(in io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	entries := []map[string]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		name, code := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if strings.EqualFold(name, "name") && strings.EqualFold(code, "code") {
			continue
		}
		entries = append(entries, map[string]string{"name": name, "code": code})
	}
	return entries, nil
}

func init() {
	groupsCreateCmd.Flags().StringVar(&flagCode, "code", "", "Access code (suggested when omitted)")
	groupsRmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	groupsCmd.AddCommand(groupsLsCmd, groupsCreateCmd, groupsBulkCmd, groupsRmCmd, groupsSuggestCmd)
	rootCmd.AddCommand(groupsCmd)
}
