package main

import (
	"fmt"
	"time"

	"github.com/rgehrsitz/quotego/internal/config"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/output"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/spf13/cobra"
)

// openSavedQuotes opens the persistent store named by the flags, falling back
// to the environment
func openSavedQuotes(cmd *cobra.Command) (store.QuoteStore, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadAppConfig(envFile)
	if err != nil {
		return nil, err
	}
	if dbType, _ := cmd.Flags().GetString("db-type"); dbType != "" {
		cfg.DatabaseType = dbType
	}
	if dbURL, _ := cmd.Flags().GetString("db-url"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if cfg.DatabaseType == "memory" {
		return nil, fmt.Errorf("saved quotes need a persistent database; set DATABASE_TYPE or --db-type")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func filterFromFlags(cmd *cobra.Command) (store.Filter, error) {
	var f store.Filter
	if line, _ := cmd.Flags().GetString("line"); line != "" {
		t, err := domain.ParseInsuranceType(line)
		if err != nil {
			return f, err
		}
		f.Line = t
	}
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		s, err := domain.ParseQuoteStatus(status)
		if err != nil {
			return f, err
		}
		f.Status = s
	}
	f.Search, _ = cmd.Flags().GetString("search")
	return f, nil
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Inspect and manage submitted quotes",
}

var quotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted quotes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportQuotes(cmd, "table")
	},
}

var quotesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export submitted quotes as a table, JSON or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return exportQuotes(cmd, format)
	},
}

func exportQuotes(cmd *cobra.Command, format string) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	quotes, err := openSavedQuotes(cmd)
	if err != nil {
		return err
	}
	defer quotes.Close()

	list, err := quotes.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	out, err := store.Export(format, list, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

var quotesShowCmd = &cobra.Command{
	Use:   "show [reference]",
	Short: "Show the premium breakdown of a submitted quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		f := output.GetFormatterByName(format)
		if f == nil {
			return fmt.Errorf("unknown format %q", format)
		}

		quotes, err := openSavedQuotes(cmd)
		if err != nil {
			return err
		}
		defer quotes.Close()

		q, err := quotes.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("quote %s: %w", args[0], err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Reference: %s\nStatus:    %s\nAgent:     %s\nSubmitted: %s\n\n",
			q.Reference, q.Status, q.AgentID, q.SubmittedAt.Format(time.RFC3339))
		if q.Draft.Premium == nil {
			return fmt.Errorf("quote %s has no premium breakdown", q.Reference)
		}
		data, err := f.Format(q.Draft.Premium)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	},
}

var quotesStatusCmd = &cobra.Command{
	Use:   "status [reference] [status]",
	Short: "Change the status of a submitted quote",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := domain.ParseQuoteStatus(args[1])
		if err != nil {
			return err
		}
		quotes, err := openSavedQuotes(cmd)
		if err != nil {
			return err
		}
		defer quotes.Close()

		if err := quotes.UpdateStatus(cmd.Context(), args[0], status); err != nil {
			return fmt.Errorf("quote %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Quote %s is now %s\n", args[0], status)
		return nil
	},
}

func initQuotesCommand() {
	quotesCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before reading settings")
	quotesCmd.PersistentFlags().String("db-type", "", "Database type: sqlite or postgres (overrides DATABASE_TYPE)")
	quotesCmd.PersistentFlags().String("db-url", "", "Database URL (overrides DATABASE_URL)")

	for _, c := range []*cobra.Command{quotesListCmd, quotesExportCmd} {
		c.Flags().String("line", "", "Only quotes of this insurance line")
		c.Flags().String("status", "", "Only quotes with this status")
		c.Flags().String("search", "", "Match reference or agent, case-insensitive")
	}
	quotesExportCmd.Flags().StringP("format", "f", "csv", "Export format (table, json, csv)")
	quotesShowCmd.Flags().StringP("format", "f", "console-verbose", "Output format for the breakdown")

	quotesCmd.AddCommand(quotesListCmd, quotesExportCmd, quotesShowCmd, quotesStatusCmd)
	rootCmd.AddCommand(quotesCmd)
}
