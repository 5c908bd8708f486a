package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/export"
	"github.com/KaramelBytes/cadence-cli/internal/utils"
)

var (
	adbTable           string
	adbAllTables       bool
	adbOutputPath      string
	adbOutDir          string
	adbFormat          string
	adbTop             int
	adbMaxRows         int
	adbContinueOnError bool
	adbQuiet           bool
)

var analyzeDBCmd = &cobra.Command{
	Use:   "analyze-db",
	Short: "Analyze a table (or every table) of the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (adbTable == "") == !adbAllTables {
			return fmt.Errorf("specify exactly one of --table or --all-tables")
		}
		if adbAllTables && adbOutDir == "" {
			return fmt.Errorf("--out-dir is required with --all-tables")
		}
		format, err := outputFormat(adbFormat)
		if err != nil {
			return err
		}
		top := topCustomers(cmd, adbTop)
		maxRows := currentConfig().MaxRows
		if adbMaxRows > 0 {
			maxRows = adbMaxRows
		}

		ctx := cmdContext(cmd)
		db, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if !adbAllTables {
			t, err := db.LoadTable(ctx, adbTable, maxRows)
			if err != nil {
				return err
			}
			rep, err := analysis.Run(t, analysisOptions())
			if err != nil {
				return err
			}
			printWarnings(rep)
			out, err := export.Render(rep, format, top)
			if err != nil {
				return err
			}
			if err := emit(adbOutputPath, out); err != nil {
				return err
			}
			if adbOutputPath != "" {
				fmt.Printf("✓ Wrote analysis to %s\n", adbOutputPath)
			}
			return nil
		}

		tables, err := db.ListTables(ctx)
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(adbOutDir); err != nil {
			return err
		}
		bar := newBar(len(tables), "analyzing", adbQuiet)
		written, skipped := 0, 0
		for _, name := range tables {
			if bar != nil {
				bar.Describe(name)
			}
			err := func() error {
				t, err := db.LoadTable(ctx, name, maxRows)
				if err != nil {
					return err
				}
				rep, err := analysis.Run(t, analysisOptions())
				if err != nil {
					return err
				}
				out, err := export.Render(rep, format, top)
				if err != nil {
					return err
				}
				outFile, _ := utils.UniquePath(adbOutDir, utils.Slug(name, "table"), ".cadence."+format.Ext())
				return emit(outFile, out)
			}()
			if bar != nil {
				_ = bar.Add(1)
			}
			var se *analysis.SchemaError
			switch {
			case err == nil:
				written++
			case errors.As(err, &se):
				// not an order table
				skipped++
				log.Debug("skip table", zap.String("table", name), zap.Error(err))
			case adbContinueOnError:
				skipped++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, err)
			default:
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}
		if !adbQuiet {
			fmt.Printf("✓ Analyzed %d table(s) into %s (%d skipped)\n", written, adbOutDir, skipped)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeDBCmd)
	analyzeDBCmd.Flags().StringVarP(&adbTable, "table", "t", "", "table to analyze")
	analyzeDBCmd.Flags().BoolVar(&adbAllTables, "all-tables", false, "analyze every table; tables without order columns are skipped")
	analyzeDBCmd.Flags().StringVarP(&adbOutputPath, "output", "o", "", "with --table: path to write the report (default stdout)")
	analyzeDBCmd.Flags().StringVar(&adbOutDir, "out-dir", "", "with --all-tables: directory for <table>.cadence.<ext> reports")
	analyzeDBCmd.Flags().StringVarP(&adbFormat, "format", "f", "", "output format: markdown | json | csv (default from config)")
	analyzeDBCmd.Flags().IntVar(&adbTop, "top", 0, "Markdown: customers shown (0 = all; default from config)")
	analyzeDBCmd.Flags().IntVar(&adbMaxRows, "max-rows", 0, "maximum rows loaded per table (0 = config max_rows)")
	analyzeDBCmd.Flags().BoolVar(&adbContinueOnError, "continue-on-error", false, "with --all-tables: keep going when a table fails")
	analyzeDBCmd.Flags().BoolVar(&adbQuiet, "quiet", false, "suppress progress and summary")
}
