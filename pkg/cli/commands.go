package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newLoadCmd(newClient func() *Client) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "load <csv-path>",
		Short: "Load a CSV dataset and open a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().LoadDataset(cmd.Context(), args[0], table)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}
			fmt.Fprintf(os.Stdout, "Session: %s\n", resp.Session.ID)
			fmt.Fprintf(os.Stdout, "Table:   %s (%d columns)\n", resp.Schema.Table, len(resp.Schema.Columns))
			fmt.Fprintf(os.Stdout, "\nexport RETAIL_SESSION=%s\n", resp.Session.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Analytical table name (default: server config)")
	return cmd
}

func newAskCmd(newClient func() *Client, getSession func() (string, error)) *cobra.Command {
	var showSQL bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the loaded dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := getSession()
			if err != nil {
				return err
			}
			answer, err := newClient().Ask(cmd.Context(), session, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, answer)
			}
			fmt.Fprintln(os.Stdout, answer.Text)
			for _, w := range answer.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			if showSQL {
				fmt.Fprintf(os.Stdout, "\nSQL:\n%s\n", answer.SQL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSQL, "sql", false, "Also print the executed SQL")
	return cmd
}

func newSummarizeCmd(newClient func() *Client, getSession func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Generate an executive summary of the loaded dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := getSession()
			if err != nil {
				return err
			}
			summary, err := newClient().Summarize(cmd.Context(), session)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, summary)
			}
			fmt.Fprintln(os.Stdout, summary.Text)
			return nil
		},
	}
}

func newSchemaCmd(newClient func() *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the current dataset's schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			meta, err := newClient().Schema(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, meta)
			}
			rows := make([][]string, len(meta.Columns))
			for i, c := range meta.Columns {
				rows[i] = []string{c.Name, c.Type}
			}
			return printTable(os.Stdout, []string{"COLUMN", "TYPE"}, rows)
		},
	}
}

func newHistoryCmd(newClient func() *Client, getSession func() (string, error)) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the session transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := getSession()
			if err != nil {
				return err
			}
			client := newClient()
			if clear {
				if err := client.ClearHistory(cmd.Context(), session); err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, "History cleared.")
				return nil
			}
			messages, err := client.History(cmd.Context(), session)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]any{"messages": messages})
			}
			for _, m := range messages {
				fmt.Fprintf(os.Stdout, "[%s] %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the transcript instead of showing it")
	return cmd
}

func newQueriesCmd(newClient func() *Client, getSession func() (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "Show the session's query log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := getSession()
			if err != nil {
				return err
			}
			entries, err := newClient().Queries(cmd.Context(), session)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]any{"queries": entries})
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.Status,
					strconv.Itoa(e.RowCount),
					strconv.FormatInt(e.DurationMs, 10) + "ms",
					e.Question,
				}
			}
			return printTable(os.Stdout, []string{"TIME", "STATUS", "ROWS", "DURATION", "QUESTION"}, rows)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{"version": version, "commit": commit})
			}
			fmt.Fprintf(os.Stdout, "retail version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
