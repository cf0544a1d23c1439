package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored credential",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	// Logout is idempotent; logging out while logged out is fine.
	if err := manager.Logout(); err != nil {
		return fmt.Errorf("discard stored credential: %w", err)
	}
	fmt.Println("Logged out")
	return nil
}
