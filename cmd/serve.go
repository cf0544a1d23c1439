package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk web server",
	Long: `Run the attendance kiosk web server. It serves the station frontend
and proxies its API calls to the attendance service, keeping the
upstream credential in a signed cookie session per browser.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides FACEGATE_KIOSK_ADDR)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if addr := mustGetString(cmd, "addr"); addr != "" {
		cfg.Kiosk.Addr = addr
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Kiosk.Secret = secret
	}

	server := web.NewServer(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting kiosk on http://%s\n", cfg.Kiosk.Addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
