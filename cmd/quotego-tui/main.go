package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/config"
	"github.com/rgehrsitz/quotego/internal/documents"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/rgehrsitz/quotego/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "quotego-tui",
	Short: "Terminal quotation wizard",
	Long:  `Walks an agent through a quotation step by step, prices it and submits it to the configured store.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		agent, _ := cmd.Flags().GetString("agent")
		docsDir, _ := cmd.Flags().GetString("documents")

		cfg, err := config.LoadAppConfig(envFile)
		if err != nil {
			return err
		}
		cat, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return err
		}

		var quotes store.QuoteStore = store.NewMemoryStore()
		if cfg.DatabaseType != "memory" {
			if quotes, err = store.OpenSQL(cfg.DatabaseType, cfg.DatabaseURL); err != nil {
				return err
			}
		}
		defer quotes.Close()

		tcfg := tui.Config{
			Catalog: cat,
			Store:   quotes,
			AgentID: agent,
			Options: session.Options{
				CalcDelay:      cfg.CalcDelay,
				SubmitAttempts: cfg.SubmitAttempts,
				SubmitBackoff:  cfg.SubmitBackoff,
			},
		}
		if docsDir != "" {
			tcfg.Extractor = documents.NewSidecarExtractor(docsDir)
		}

		p := tea.NewProgram(
			tui.NewModel(tcfg),
			tea.WithAltScreen(), // Use alternate screen buffer
		)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().String("env-file", ".env", "Environment file loaded before reading settings")
	rootCmd.Flags().String("agent", os.Getenv("USER"), "Agent ID recorded on submitted quotes")
	rootCmd.Flags().String("documents", "", "Directory holding extraction sidecars for scanned documents")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
