package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/asheshgoplani/tfdeck/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var output string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently executed terraform commands",
		Long:  "List the command history, newest first.\nOutputs a table by default; --output json or yaml prints every field.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, records, err := openHistory()
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer db.Close()
			return writeHistory(cmd.OutOrStdout(), newestFirst(records.List(), limit), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table|json|yaml)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of records (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget all recorded commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, records, err := openHistory()
			if err != nil {
				return fmt.Errorf("history clear: %w", err)
			}
			defer db.Close()
			records.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	})
	return cmd
}

// newestFirst reverses a copy of records and keeps at most limit entries.
func newestFirst(records []history.Record, limit int) []history.Record {
	out := make([]history.Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func writeHistory(w io.Writer, records []history.Record, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		_, err := io.WriteString(w, formatHistoryTable(records))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// formatHistoryTable formats records as a tabular string.
func formatHistoryTable(records []history.Record) string {
	if len(records) == 0 {
		return "No commands recorded.\n"
	}

	const maxCommand = 50

	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-9s %-6s %-52s %s\n", "EXECUTED", "OUTCOME", "MODAL", "COMMAND", "ERROR")
	for _, r := range records {
		modal := "no"
		if r.RunInModal {
			modal = "yes"
		}
		outcome := r.Outcome
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(&b, "%-20s %-9s %-6s %-52s %s\n",
			r.ExecutedAt.Local().Format(time.DateTime),
			outcome,
			modal,
			truncate(r.Command(), maxCommand),
			truncate(firstLine(r.ErrorMessage), maxCommand))
	}
	return b.String()
}

// truncate shortens s to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
