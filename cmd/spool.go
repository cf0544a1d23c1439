package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
	"github.com/akbarov/facegate/internal/spool"
)

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Manage the offline submission queue",
}

var spoolStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queued frames",
	RunE:  runSpoolStatus,
}

var spoolFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Submit queued frames to the service",
	Long: `Submit queued frames in capture order. A frame the service rejects
is dropped with its reason printed; a frame that cannot reach the
service stays queued for the next flush.`,
	RunE: runSpoolFlush,
}

func init() {
	rootCmd.AddCommand(spoolCmd)
	spoolCmd.AddCommand(spoolStatusCmd)
	spoolCmd.AddCommand(spoolFlushCmd)
}

func runSpoolStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	queue, err := spool.Open(cfg.Spool.Path)
	if err != nil {
		return err
	}
	defer queue.Close()

	entries, err := queue.Pending(cmd.Context())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("Spool is empty.")
		return nil
	}

	fmt.Printf("%d frame(s) queued:\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("  %s  captured %s  attempts %d\n",
			entry.ID, entry.CapturedAt.Local().Format("2006-01-02 15:04:05"), entry.Attempts)
	}
	return nil
}

func runSpoolFlush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := api.New(cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}

	queue, err := spool.Open(cfg.Spool.Path)
	if err != nil {
		return err
	}
	defer queue.Close()

	entries, err := queue.Pending(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Spool is empty.")
		return nil
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Flushing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var lines []string
	submitted := 0
	dropped := 0
	unreachable := false
	for _, entry := range entries {
		img := &capture.Image{ID: entry.ID, Data: entry.Image, TakenAt: entry.CapturedAt}

		result, err := client.MarkAttendance(cmd.Context(), img.DataURL())
		if err != nil {
			if apiDetail := describeRejection(err); apiDetail != "" {
				// The service saw the frame and said no; retrying is pointless.
				lines = append(lines, fmt.Sprintf("Dropped %s: %s", entry.ID, apiDetail))
				if err := queue.Remove(cmd.Context(), entry.ID); err != nil {
					return err
				}
				dropped++
				bar.Add(1)
				continue
			}
			if err := queue.MarkAttempt(cmd.Context(), entry.ID); err != nil {
				return err
			}
			unreachable = true
			break
		}

		lines = append(lines, outcomeLines(result)...)
		if err := queue.Remove(cmd.Context(), entry.ID); err != nil {
			return err
		}
		submitted++
		bar.Add(1)
	}
	fmt.Println()

	for _, line := range lines {
		fmt.Println(line)
	}
	if unreachable {
		fmt.Printf("Service unreachable; %d frame(s) left queued\n", len(entries)-submitted-dropped)
		return nil
	}
	fmt.Printf("Submitted %d frame(s)\n", submitted)
	return nil
}
