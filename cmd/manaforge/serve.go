package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/manaforge/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			port := a.cfg.Server.Port
			if p, _ := cmd.Flags().GetInt("port"); p > 0 {
				port = p
			}
			timeout, err := a.cfg.GetRequestTimeout()
			if err != nil {
				return err
			}

			server := api.NewServer(&api.Config{
				Port:           port,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				RequestTimeout: timeout,
			}, api.Dependencies{
				Decks:       a.decks,
				History:     a.history,
				Committer:   a.commits,
				Collections: a.owned,
				Cards:       a.cards,
				Search:      a.search,
				Metrics:     a.metrics,
			})

			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start API server: %w", err)
			}
			fmt.Printf("API server running at http://localhost:%d\n", port)
			fmt.Println("Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during shutdown: %v", err)
			}
			fmt.Println("API server stopped.")
			return nil
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides the config file)")
	return cmd
}
