package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users (admin)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered users",
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	if _, err := requireSession(cmd.Context(), manager); err != nil {
		return err
	}

	users, err := client.Users(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}

	if len(users) == 0 {
		fmt.Println("No users registered yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tFULL NAME\tROLE\tFACES")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", u.ID, u.Username, u.FullName, u.Role, u.FaceSamples)
	}
	return w.Flush()
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, manager, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	if _, err := requireSession(cmd.Context(), manager); err != nil {
		return err
	}

	if err := client.DeleteUser(cmd.Context(), args[0]); err != nil {
		return discardRejectedSession(manager, err)
	}
	fmt.Println("User deleted")
	return nil
}
