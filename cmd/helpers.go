package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/cadence-cli/internal/config"
	"github.com/KaramelBytes/cadence-cli/internal/export"
	"github.com/KaramelBytes/cadence-cli/internal/source"
	"github.com/KaramelBytes/cadence-cli/internal/table"
	"github.com/KaramelBytes/cadence-cli/internal/utils"
)

// currentConfig returns the loaded config, or defaults when loading was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Defaults()
	}
	return cfg
}

// fileFlags are the table-loading flags shared by file commands.
type fileFlags struct {
	delimiter  string
	decimal    string
	sheetName  string
	sheetIndex int
	maxRows    int
}

func (ff *fileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	cmd.Flags().StringVar(&ff.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	cmd.Flags().StringVar(&ff.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	cmd.Flags().IntVar(&ff.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().IntVar(&ff.maxRows, "max-rows", 0, "maximum rows to process (0 = config max_rows)")
}

func (ff *fileFlags) options() (table.Options, error) {
	opt := table.Options{
		MaxRows:    currentConfig().MaxRows,
		SheetName:  ff.sheetName,
		SheetIndex: ff.sheetIndex,
	}
	if ff.maxRows > 0 {
		opt.MaxRows = ff.maxRows
	}
	d, err := parseDelimiter(ff.delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	dec, err := parseDecimal(ff.decimal)
	if err != nil {
		return opt, err
	}
	opt.DecimalSeparator = dec
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab", "\\t":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

func parseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", s)
}

// outputFormat resolves --format, falling back to config output_format.
func outputFormat(flag string) (export.Format, error) {
	if flag == "" {
		flag = currentConfig().OutputFormat
	}
	return export.ParseFormat(flag)
}

func analysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if w := currentConfig().Workers; w > 0 {
		opt.Workers = w
	}
	return opt
}

func sourceParams() source.Params {
	c := currentConfig()
	return source.Params{
		Driver:   c.Driver,
		DSN:      c.DSN,
		Host:     c.DBHost,
		Port:     c.DBPort,
		Username: c.DBUser,
		Password: c.DBPassword,
		Schema:   c.DBSchema,
	}
}

func poolOptions() source.PoolOptions {
	c := currentConfig()
	opt := source.DefaultPoolOptions()
	if c.MaxOpenConns > 0 {
		opt.MaxOpenConns = c.MaxOpenConns
	}
	if c.DBTimeoutSec > 0 {
		opt.Timeout = time.Duration(c.DBTimeoutSec) * time.Second
	}
	opt.Logger = log
	return opt
}

// printWarnings writes report warnings to stderr in the CLI's style.
func printWarnings(rep *analysis.Report) {
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %s: %s\n", rep.Name, w)
	}
}

// emit writes rendered output to path, or stdout when path is empty.
func emit(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// expandGlobs resolves each argument as a glob (or literal path) and returns
// the sorted, de-duplicated file list.
func expandGlobs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// newBar returns a stderr progress bar, or nil when quiet.
func newBar(total int, desc string, quiet bool) *progressbar.ProgressBar {
	if quiet || total <= 1 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
