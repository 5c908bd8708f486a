package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/cadence-cli/internal/source"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables in the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		db, err := openSource(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		tables, err := db.ListTables(ctx)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			fmt.Println("(no tables)")
			return nil
		}
		for _, t := range tables {
			fmt.Printf("- %s\n", t)
		}
		return nil
	},
}

func openSource(ctx context.Context) (*source.DB, error) {
	return source.Open(ctx, sourceParams(), poolOptions())
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
