package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	current, err := requireSession(cmd.Context(), manager)
	if err != nil {
		return err
	}

	identity := current.Identity
	fmt.Printf("Username:     %s\n", identity.Username)
	fmt.Printf("Full name:    %s\n", identity.FullName)
	fmt.Printf("Email:        %s\n", identity.Email)
	fmt.Printf("Role:         %s\n", identity.Role)
	fmt.Printf("Face samples: %d\n", identity.FaceSamples)
	return nil
}
