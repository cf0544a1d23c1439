package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/session"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage service recognition settings (admin)",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the settings",
	Long: `Update the service-side recognition settings. Only the given flags
change; the rest keep their current values.

Example:
  facegate settings set --threshold 0.65
  facegate settings set --policy flexible --late-minutes 30`,
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().Float64("threshold", 0, "Face match threshold in (0,1]")
	settingsSetCmd.Flags().String("policy", "", "Attendance policy (strict or flexible)")
	settingsSetCmd.Flags().Int("late-minutes", 0, "Minutes after which a mark counts as late")
}

func settingsClient(cmd *cobra.Command) (*api.Client, *session.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, manager, err := newSessionManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := requireSession(cmd.Context(), manager); err != nil {
		return nil, nil, err
	}
	return client, manager, nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	client, manager, err := settingsClient(cmd)
	if err != nil {
		return err
	}

	settings, err := client.GetSettings(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}

	fmt.Printf("Face threshold:    %.2f\n", settings.FaceThreshold)
	fmt.Printf("Attendance policy: %s\n", settings.AttendancePolicy)
	fmt.Printf("Late threshold:    %d minutes\n", settings.LateThresholdMinutes)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	client, manager, err := settingsClient(cmd)
	if err != nil {
		return err
	}

	// Fetch current values so unset flags stay unchanged.
	settings, err := client.GetSettings(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}

	if cmd.Flags().Changed("threshold") {
		threshold := mustGetFloat64(cmd, "threshold")
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("threshold must be in (0,1], got %v", threshold)
		}
		settings.FaceThreshold = threshold
	}
	if cmd.Flags().Changed("policy") {
		settings.AttendancePolicy = mustGetString(cmd, "policy")
	}
	if cmd.Flags().Changed("late-minutes") {
		settings.LateThresholdMinutes = mustGetInt(cmd, "late-minutes")
	}

	if err := client.UpdateSettings(cmd.Context(), *settings); err != nil {
		return discardRejectedSession(manager, err)
	}
	fmt.Println("Settings updated")
	return nil
}
