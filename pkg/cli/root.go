// Package cli implements the retail command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if output, _ := rootCmd.PersistentFlags().GetString("output"); output == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		session string
	)

	rootCmd := &cobra.Command{
		Use:           "retail",
		Short:         "Retail Insights Assistant CLI",
		Long:          "Command-line client for the Retail Insights Assistant API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("RETAIL_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("session") {
				if v := os.Getenv("RETAIL_SESSION"); v != "" {
					session = v
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("RETAIL_OUTPUT"); v != "" {
					output = v
				}
			}
			return validateOutputFormat(output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&session, "session", "s", "", "Session ID (or RETAIL_SESSION)")

	newClient := func() *Client { return NewClient(host) }
	getSession := func() (string, error) {
		if session == "" {
			return "", fmt.Errorf("no session: pass --session or set RETAIL_SESSION (run 'retail load' to create one)")
		}
		return session, nil
	}

	rootCmd.AddCommand(
		newLoadCmd(newClient),
		newAskCmd(newClient, getSession),
		newSummarizeCmd(newClient, getSession),
		newSchemaCmd(newClient),
		newHistoryCmd(newClient, getSession),
		newQueriesCmd(newClient, getSession),
		newVersionCmd(),
	)

	return rootCmd
}
