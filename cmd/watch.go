package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/cadence-cli/internal/export"
	"github.com/KaramelBytes/cadence-cli/internal/watch"
)

var (
	wOutputPath string
	wFormat     string
	wTop        int
	wDebounce   time.Duration
	wFile       fileFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-analyze an order file whenever it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return err
		}
		format, err := outputFormat(wFormat)
		if err != nil {
			return err
		}
		if _, err := wFile.options(); err != nil {
			return err
		}
		top := topCustomers(cmd, wTop)

		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := watch.New(path, wDebounce, func(context.Context) error {
			rep, err := analyzeFile(path, wFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, "✗ Error:", err)
				return err
			}
			printWarnings(rep)
			out, err := export.Render(rep, format, top)
			if err != nil {
				return err
			}
			if err := emit(wOutputPath, out); err != nil {
				return err
			}
			if wOutputPath != "" {
				fmt.Printf("✓ [%s] Wrote analysis to %s\n", time.Now().Format("15:04:05"), wOutputPath)
			}
			return nil
		}, log)
		fmt.Printf("Watching %s (Ctrl+C to stop)\n", path)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&wOutputPath, "output", "o", "", "path rewritten on every change (default stdout)")
	watchCmd.Flags().StringVarP(&wFormat, "format", "f", "", "output format: markdown | json | csv (default from config)")
	watchCmd.Flags().IntVar(&wTop, "top", 0, "Markdown: customers shown (0 = all; default from config)")
	watchCmd.Flags().DurationVar(&wDebounce, "debounce", 300*time.Millisecond, "quiet period after a change before re-running")
	wFile.register(watchCmd)
}
