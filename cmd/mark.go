package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/flow"
	"github.com/akbarov/facegate/internal/spool"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Capture a frame and mark attendance",
	Long: `Capture a frame from the configured device and submit it for
attendance marking. Every face the service recognizes in the frame is
marked; each outcome is printed with its confidence.

When the service is unreachable the frame is queued locally and can be
submitted later with 'facegate spool flush'.`,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
	markCmd.Flags().Bool("no-spool", false, "Fail instead of queueing when the service is unreachable")
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Marking is open on the service, no login needed
	client, err := api.New(cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	marking := flow.NewAttendance(client)
	if err := marking.Begin(); err != nil {
		return err
	}

	img, err := captureFrame(cmd.Context(), cfg)
	if err != nil {
		marking.Cancel()
		return err
	}

	result, err := marking.Submit(cmd.Context(), img)
	if err != nil {
		if errors.Is(err, flow.ErrNoMatches) {
			return fmt.Errorf("no registered faces matched the capture")
		}

		var apiErr *api.Error
		if !errors.As(err, &apiErr) && !mustGetBool(cmd, "no-spool") {
			// Transport failure; the service never saw the frame.
			id, spoolErr := queueFrame(cmd, cfg.Spool.Path, img.Data, img.TakenAt)
			if spoolErr != nil {
				return fmt.Errorf("marking failed (%v) and queueing failed: %w", err, spoolErr)
			}
			fmt.Printf("Service unreachable; frame queued as %s\n", id)
			fmt.Println("Run 'facegate spool flush' when the service is back")
			return nil
		}
		return fmt.Errorf("marking failed: %w", err)
	}

	printOutcomes(result)
	return nil
}

func queueFrame(cmd *cobra.Command, path string, data []byte, takenAt time.Time) (string, error) {
	queue, err := spool.Open(path)
	if err != nil {
		return "", err
	}
	defer queue.Close()
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	return queue.Add(cmd.Context(), data, takenAt)
}

func printOutcomes(result *api.MarkResult) {
	for _, line := range outcomeLines(result) {
		fmt.Println(line)
	}
}

func outcomeLines(result *api.MarkResult) []string {
	lines := []string{result.Message}
	for _, outcome := range result.Outcomes {
		line := fmt.Sprintf("  %s (%s)", outcome.Identity.FullName, outcome.Identity.Username)
		switch outcome.Status {
		case api.OutcomeAlreadyMarked:
			line += " - already marked"
		default:
			line += " - marked"
		}
		if pct := outcome.ConfidencePercent(); pct != "" {
			line += fmt.Sprintf(" (%s)", pct)
		}
		lines = append(lines, line)
	}
	return lines
}
