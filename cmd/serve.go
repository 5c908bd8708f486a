package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cadence-cli/internal/server"
)

var (
	srvAddr      string
	srvStaticDir string
	srvConnect   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API (connect, tables, analytics) and an optional static frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.HTTPAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		static := c.StaticDir
		if cmd.Flags().Changed("static-dir") {
			static = srvStaticDir
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Options{
			StaticDir: static,
			MaxRows:   c.MaxRows,
			Analysis:  analysisOptions(),
			Pool:      poolOptions(),
			Logger:    log,
		})
		defer srv.Close()
		if srvConnect {
			if err := srv.Connect(ctx, sourceParams()); err != nil {
				return err
			}
		}

		hs := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			errCh <- hs.ListenAndServe()
		}()
		fmt.Printf("✓ Serving on %s\n", addr)
		if static != "" {
			fmt.Printf("  Static files from %s\n", static)
		}
		log.Info("http server started", zap.String("addr", addr), zap.String("static_dir", static))

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		fmt.Println("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", ":8000", "listen address (default from config http_addr)")
	serveCmd.Flags().StringVar(&srvStaticDir, "static-dir", "", "directory served for non-API paths (default from config static_dir)")
	serveCmd.Flags().BoolVar(&srvConnect, "connect", false, "connect to the configured database at startup")
}
