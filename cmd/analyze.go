package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/export"
	"github.com/KaramelBytes/cadence-cli/internal/table"
)

var (
	anaOutputPath string
	anaFormat     string
	anaTop        int
	anaFile       fileFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze an order table (CSV/TSV/XLSX) and report per-customer cadence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(anaFormat)
		if err != nil {
			return err
		}
		rep, err := analyzeFile(args[0], anaFile)
		if err != nil {
			return err
		}
		printWarnings(rep)
		out, err := export.Render(rep, format, topCustomers(cmd, anaTop))
		if err != nil {
			return err
		}
		if err := emit(anaOutputPath, out); err != nil {
			return err
		}
		if anaOutputPath != "" {
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
		}
		return nil
	},
}

// analyzeFile loads one file and runs the analysis over it.
func analyzeFile(path string, ff fileFlags) (*analysis.Report, error) {
	opt, err := ff.options()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	t, err := table.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	rep, err := analysis.Run(t, analysisOptions())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("analyzed file",
		zap.String("file", path),
		zap.String("run_id", rep.RunID),
		zap.Int("rows", rep.Rows),
		zap.Int("customers", len(rep.Records)))
	return rep, nil
}

// topCustomers resolves --top, falling back to config top_customers.
func topCustomers(cmd *cobra.Command, flag int) int {
	if cmd.Flags().Changed("top") {
		return flag
	}
	return currentConfig().TopCustomers
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report (default stdout)")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "", "output format: markdown | json | csv (default from config)")
	analyzeCmd.Flags().IntVar(&anaTop, "top", 0, "Markdown: customers shown in the table (0 = all; default from config)")
	anaFile.register(analyzeCmd)
}
