package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/cadence-cli/internal/export"
	"github.com/KaramelBytes/cadence-cli/internal/table"
	"github.com/KaramelBytes/cadence-cli/internal/utils"
)

var (
	abOutDir          string
	abFormat          string
	abTop             int
	abQuiet           bool
	abContinueOnError bool
	abFile            fileFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX order files with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		for _, f := range expandGlobs(args) {
			if !table.Supported(f) {
				if !abQuiet {
					fmt.Fprintf(os.Stderr, "⚠ Skipping %s: unsupported format\n", filepath.Base(f))
				}
				continue
			}
			files = append(files, f)
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		format, err := outputFormat(abFormat)
		if err != nil {
			return err
		}
		if _, err := abFile.options(); err != nil {
			return err
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return err
			}
		}
		top := topCustomers(cmd, abTop)

		total := len(files)
		bar := newBar(total, "analyzing", abQuiet || abOutDir == "")
		var failed []string
		for i, path := range files {
			if bar != nil {
				bar.Describe(filepath.Base(path))
			} else if !abQuiet && abOutDir != "" {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			err := analyzeOne(path, format, top)
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				if !abContinueOnError {
					return err
				}
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", filepath.Base(path), err)
				failed = append(failed, path)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d files failed", len(failed), total)
		}
		if !abQuiet && abOutDir != "" {
			fmt.Printf("✓ Analyzed %d file(s) into %s\n", total, abOutDir)
		}
		return nil
	},
}

func analyzeOne(path string, format export.Format, top int) error {
	rep, err := analyzeFile(path, abFile)
	if err != nil {
		return err
	}
	if !abQuiet {
		printWarnings(rep)
	}
	out, err := export.Render(rep, format, top)
	if err != nil {
		return err
	}
	if abOutDir == "" {
		if abQuiet {
			return nil
		}
		return emit("", out)
	}
	outFile, renamed := utils.UniquePath(abOutDir, batchBase(path, abFile.sheetName), ".cadence."+format.Ext())
	if renamed && !abQuiet {
		fmt.Fprintf(os.Stderr, "⚠ Detected existing report, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
	}
	return emit(outFile, out)
}

// batchBase is the output file stem: the input base name, plus the sheet slug
// when a sheet was selected by name.
func batchBase(path, sheet string) string {
	base := filepath.Base(path)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet == "" {
		return safe
	}
	return safe + "__sheet-" + utils.Slug(sheet, "sheet")
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for <name>.cadence.<ext> reports (default stdout)")
	analyzeBatchCmd.Flags().StringVarP(&abFormat, "format", "f", "", "output format: markdown | json | csv (default from config)")
	analyzeBatchCmd.Flags().IntVar(&abTop, "top", 0, "Markdown: customers shown per report (0 = all; default from config)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress per-file output and progress")
	analyzeBatchCmd.Flags().BoolVar(&abContinueOnError, "continue-on-error", false, "keep going when a file fails and report failures at the end")
	abFile.register(analyzeBatchCmd)
}
