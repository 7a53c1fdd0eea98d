package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/mailphone/internal/database"
	"github.com/vijay-prabhu/mailphone/internal/email"
)

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []email.Record:
		return recordsTable(w, v)
	case []database.Run:
		return runsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func recordsTable(w io.Writer, records []email.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "To", "Date", "Received", "Error")

	for _, r := range records {
		received := ""
		if r.InternalDate != nil {
			received = time.UnixMilli(*r.InternalDate).Local().Format("2006-01-02 15:04")
		}
		if err := table.Append([]string{
			r.ID,
			truncate(deref(r.To), 40),
			deref(r.Date),
			received,
			truncate(deref(r.Error), 40),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

func runsTable(w io.Writer, runs []database.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Started", "Messages", "Errors", "Phones", "Truncated", "Output")

	for _, r := range runs {
		truncated := ""
		if r.Truncated {
			truncated = "yes"
		}
		if err := table.Append([]string{
			formatAgo(r.StartedAt),
			strconv.Itoa(r.MessageCount),
			strconv.Itoa(r.ErrorCount),
			strconv.Itoa(r.PhoneCount),
			truncated,
			deref(r.OutputPath),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

func formatAgo(t time.Time) string {
	days := int(time.Since(t).Hours() / 24)
	switch {
	case days == 0:
		return "today " + t.Local().Format("15:04")
	case days == 1:
		return "yesterday " + t.Local().Format("15:04")
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Local().Format("Jan 02, 2006")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
