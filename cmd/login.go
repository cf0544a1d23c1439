package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the attendance service",
	Long: `Log in to the attendance service with username and password, or by
face capture with --face. The credential is stored so following commands
run as the logged-in user.

Example:
  facegate login alisher
  facegate login --face`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().Bool("face", false, "Log in by face capture instead of password")
	loginCmd.Flags().String("password", "", "Password (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "face") {
		img, err := captureFrame(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		identity, err := manager.LoginByFace(cmd.Context(), img.DataURL())
		if err != nil {
			return fmt.Errorf("face login failed: %w", err)
		}
		fmt.Printf("Logged in as %s (%s)\n", identity.Username, identity.Role)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("username is required for password login")
	}
	username := args[0]

	password := mustGetString(cmd, "password")
	if password == "" {
		fmt.Printf("Password for %s: ", username)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("could not read password: %w", err)
		}
		password = strings.TrimSpace(string(raw))
	}

	identity, err := manager.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", identity.Username, identity.Role)
	return nil
}
