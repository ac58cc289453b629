package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/config"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/output"
	"github.com/rgehrsitz/quotego/internal/wizard"
	"github.com/spf13/cobra"
)

// simpleCLILogger implements calculation.Logger using the standard log package
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quotego %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "quotego",
	Short: "Insurance quotation engine",
	Long:  "Prices insurance quotes from rate tables and serves the quotation wizard to agents",
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [draft-file]",
	Short: "Calculate the premium of a draft quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := config.NewInputParser().LoadDraft(args[0])
		if err != nil {
			return err
		}

		catalogDir, _ := cmd.Flags().GetString("catalog-dir")
		cat, err := catalog.LoadDir(catalogDir)
		if err != nil {
			return err
		}

		if validate, _ := cmd.Flags().GetBool("validate"); validate {
			if errs := validateDraft(draft); !errs.Empty() {
				fmt.Fprintln(cmd.ErrOrStderr(), "Draft is incomplete:")
				for _, key := range errs.Keys() {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", key, errs[key])
				}
				return fmt.Errorf("%d field(s) failed validation", len(errs))
			}
		}

		calc := cat.Calculator()
		if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
			calc.SetLogger(simpleCLILogger{})
		}
		premium, err := cat.Quote(calc, draft)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		f := output.GetFormatterByName(format)
		if f == nil {
			return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(output.AvailableFormatterNames(), ", "))
		}

		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			filename, err := output.WriteFormatted(f, premium, dir, extensionFor(f.Name()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quote written to %s\n", filename)
			return nil
		}

		data, err := f.Format(premium)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// validateDraft runs every applicable data-collection step against the draft.
// The review step is skipped since it only checks for a calculated premium.
func validateDraft(draft *domain.QuoteDraft) domain.FieldErrors {
	errs := domain.FieldErrors{}
	graph, err := wizard.FlowFor(draft.InsuranceType)
	if err != nil {
		errs.Add("insuranceType", err.Error())
		return errs
	}
	snap := draft.Snapshot()
	for _, i := range graph.ApplicableIndexes(snap) {
		step, _ := graph.Step(i)
		if step.ID == "review" {
			continue
		}
		errs.Merge(step.Validate(snap))
	}
	return errs
}

func extensionFor(format string) string {
	switch format {
	case "console", "console-verbose":
		return "txt"
	default:
		return format
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate [line-file]",
	Short: "Validate a rate table and add-on catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := config.NewInputParser().LoadLineDocument(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Line file %s is valid (%s, %d add-ons)\n",
			args[0], doc.Table.Line.DisplayName(), len(doc.AddOns.AddOns))
		return nil
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps [line]",
	Short: "Show the wizard steps of an insurance line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := domain.ParseInsuranceType(args[0])
		if err != nil {
			return err
		}
		graph, err := wizard.FlowFor(line)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s quotation steps\n", line.DisplayName())
		fmt.Fprintln(out, strings.Repeat("=", 40))
		for i, step := range graph.Steps() {
			marker := ""
			if step.IsApplicable != nil {
				marker = " (conditional)"
			}
			fmt.Fprintf(out, "%d. %s%s\n", i+1, step.Title, marker)
			for _, f := range step.Fields {
				opt := ""
				if f.Optional {
					opt = ", optional"
				}
				fmt.Fprintf(out, "     %-22s %s%s\n", f.Key, f.Kind, opt)
			}
			for _, kind := range step.RequiredDocuments {
				fmt.Fprintf(out, "     %-22s document\n", kind)
			}
		}
		return nil
	},
}

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "List the insurance lines and their add-ons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogDir, _ := cmd.Flags().GetString("catalog-dir")
		cat, err := catalog.LoadDir(catalogDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, line := range cat.Lines() {
			fmt.Fprintf(out, "%-20s %s\n", line, line.DisplayName())
			if addOns := cat.AddOns(line); addOns != nil {
				for _, a := range addOns.AddOns {
					fmt.Fprintf(out, "    %-24s %s\n", a.ID, a.Name)
				}
			}
		}
		return nil
	},
}

func init() {
	calculateCmd.Flags().StringP("format", "f", "console", "Output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	calculateCmd.Flags().String("catalog-dir", "", "Directory of line files that replace the built-in rate tables")
	calculateCmd.Flags().String("output-dir", "", "Write the quote to a file in this directory instead of stdout")
	calculateCmd.Flags().Bool("validate", false, "Check the draft against the wizard steps before pricing")
	calculateCmd.Flags().Bool("debug", false, "Enable debug output for detailed calculations")

	linesCmd.Flags().String("catalog-dir", "", "Directory of line files that replace the built-in rate tables")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(versionCmd())

	initServeCommand()
	initQuotesCommand()
	initTokenCommand()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
