package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/cadence-cli/internal/config"
	"github.com/KaramelBytes/cadence-cli/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Source/runtime flags (override config if set)
	flagWorkers int
	flagDriver  string
	flagDSN     string

	// Loaded configuration
	cfg *cfgpkg.Global

	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Cadence CLI: customer ordering cadence from order tables",
	Long: `Cadence reads an order table (CSV, TSV, XLSX or a MySQL/PostgreSQL/SQLite table),
detects the date, customer and name columns, and reports per customer how often they
order, how they classify (Frequent, Moderate, Infrequent) and when they will likely
order next.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer func() { _ = log.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cadence/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "goroutines computing per-customer records (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "database driver: mysql | postgres | sqlite (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "database DSN or URL (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("workers") && flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
	if f.Changed("driver") && flagDriver != "" {
		cfg.Driver = flagDriver
	}
	if f.Changed("dsn") && flagDSN != "" {
		cfg.DSN = flagDSN
	}

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using info level\n", err)
		l, _ = logging.New("info", debug)
	}
	if l != nil {
		log = l
	}
}
