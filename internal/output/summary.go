package output

import (
	"fmt"
	"io"

	"github.com/vijay-prabhu/mailphone/internal/email"
)

// SummaryOptions controls what Summarize prints besides the totals
type SummaryOptions struct {
	Detail     bool // one table row per record
	Query      string
	OutputPath string
	Phones     []string
	Truncated  bool
	Cap        int64
}

// Summarize prints run totals and, when enabled, the per-record table
func Summarize(w io.Writer, records []email.Record, opts SummaryOptions) error {
	if opts.Detail && len(records) > 0 {
		if err := recordsTable(w, records); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Run complete:")
	if opts.Query != "" {
		fmt.Fprintf(w, "  Query:             %s\n", opts.Query)
	}
	fmt.Fprintf(w, "  Messages found:    %d\n", len(records))
	if failed := email.CountFailed(records); failed > 0 {
		fmt.Fprintf(w, "  Extraction errors: %d\n", failed)
	}
	fmt.Fprintf(w, "  Phone numbers:     %d\n", len(opts.Phones))
	if opts.OutputPath != "" {
		fmt.Fprintf(w, "  Output file:       %s\n", opts.OutputPath)
	}

	if opts.Truncated {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Note: result cap of %d reached; more matching messages may exist.\n", opts.Cap)
	}

	if opts.Detail && len(opts.Phones) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Matched phone numbers:")
		for _, p := range opts.Phones {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	return nil
}
