package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/output"
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and reset request quota windows",
}

// purgeResult reports a reset or purge.
type purgeResult struct {
	Matched int   `json:"matched"`
	Deleted int64 `json:"deleted"`
	DryRun  bool  `json:"dry_run"`
}

func writePurgeResult(format output.Format, w io.Writer, noun string, result purgeResult) error {
	if format != output.FormatTable {
		rendered, err := output.Render(format, result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, strings.TrimRight(rendered, "\n"))
		return err
	}

	if result.DryRun {
		_, err := fmt.Fprintf(w, "Would delete %d %s\n", result.Matched, noun)
		return err
	}
	_, err := fmt.Fprintf(w, "Deleted %d/%d %s\n", result.Deleted, result.Matched, noun)
	return err
}

// writeEmptyBox prints a boxed notice for table output with nothing to list.
func writeEmptyBox(w io.Writer, title, notice string) error {
	_, err := fmt.Fprint(w, ascii.DrawBox(strings.Join([]string{title, "", notice}, "\n"), 0))
	return err
}

func init() {
	rateLimitCmd.AddCommand(rateLimitStatusCmd)
	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
