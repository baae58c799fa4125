package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/noticeboard/backend/internal/cli/api"
)

// Out is where everything is printed. Tests swap it.
var Out io.Writer = os.Stdout

// JSON prints v as indented JSON.
func JSON(v interface{}) {
	enc := json.NewEncoder(Out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func GroupTable(groups []api.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(Out, "No groups yet.")
		return
	}

	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tID\tCREATED")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.AccessCode, g.Name, g.ID, RelativeTime(g.CreatedAt))
	}
	w.Flush()
}

// NoticeList prints a feed newest first, the way the server returns it.
func NoticeList(notices []api.Notice) {
	if len(notices) == 0 {
		fmt.Fprintln(Out, "No notices yet.")
		return
	}

	for i, n := range notices {
		if i > 0 {
			fmt.Fprintln(Out)
		}
		fmt.Fprintf(Out, "[%s] %s  (%s)\n", strings.ToUpper(n.Tag), n.Title, RelativeTime(n.CreatedAt))
		if body := strings.TrimSpace(n.Body); body != "" {
			for _, line := range strings.Split(body, "\n") {
				fmt.Fprintf(Out, "  %s\n", line)
			}
		}
		if n.ImageURL != "" {
			fmt.Fprintf(Out, "  image: %s\n", n.ImageURL)
		}
	}
}

func OrgInfo(o api.Organization) {
	w := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Organization:\t%s\n", o.Name)
	fmt.Fprintf(w, "Email:\t%s\n", o.Email)
	fmt.Fprintf(w, "ID:\t%s\n", o.ID)
	w.Flush()
}

// RelativeTime formats a timestamp relative to now (e.g. "2h ago", "3d ago").
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
