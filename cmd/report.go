package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/report"
	"github.com/akbarov/facegate/internal/session"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show today's attendance report",
	RunE:  runReport,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the admin dashboard summary (admin)",
	RunE:  runReportSummary,
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List attendance records",
	Long: `List attendance records, optionally filtered by user and date range.
Date bounds are passed to the service as given.

Example:
  facegate report history --start 2026-03-01 --end 2026-03-09
  facegate report history --user 7c9e6679-7425-40de-944b-e07fc1f90ae7 --csv report.csv`,
	RunE: runReportHistory,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportHistoryCmd)

	reportHistoryCmd.Flags().String("user", "", "Filter by user id")
	reportHistoryCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	reportHistoryCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	reportHistoryCmd.Flags().String("csv", "", "Write the records as CSV to this file instead of printing")
}

func newAggregator(cmd *cobra.Command) (*report.Aggregator, *session.Manager, error) {
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
	return report.NewAggregator(client), manager, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	agg, manager, err := newAggregator(cmd)
	if err != nil {
		return err
	}

	today, err := agg.Today(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}

	fmt.Printf("Total users: %d\n", today.TotalUsers)
	fmt.Printf("Present:     %d\n", today.Present)
	fmt.Printf("Absent:      %d\n", today.Absent)
	return nil
}

func runReportSummary(cmd *cobra.Command, args []string) error {
	agg, manager, err := newAggregator(cmd)
	if err != nil {
		return err
	}

	summary, err := agg.Summary(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}
	fmt.Print(summary)
	return nil
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	agg, manager, err := newAggregator(cmd)
	if err != nil {
		return err
	}

	agg.SetFilter(api.HistoryFilter{
		UserID: mustGetString(cmd, "user"),
		Start:  mustGetString(cmd, "start"),
		End:    mustGetString(cmd, "end"),
	})

	records, err := agg.Apply(cmd.Context())
	if err != nil {
		return discardRejectedSession(manager, err)
	}

	if csvPath := mustGetString(cmd, "csv"); csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", csvPath, err)
		}
		defer f.Close()

		if err := report.ExportCSV(f, records); err != nil {
			return err
		}
		fmt.Printf("Wrote %d record(s) to %s\n", len(records), csvPath)
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No attendance records match the filter.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tUSER\tSTATUS\tCONFIDENCE")
	for _, rec := range records {
		ts := rec.Timestamp.Local()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\n",
			ts.Format("2006-01-02"), ts.Format(time.TimeOnly),
			rec.Username, rec.Status, rec.Confidence*100)
	}
	return w.Flush()
}
