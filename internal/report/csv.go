package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/akbarov/facegate/internal/api"
)

var csvHeader = []string{"Date", "Time", "User", "Username", "Status", "Confidence"}

// ExportCSV writes the records as CSV in their given order. The same rows
// always produce byte-identical output; timestamps are split into UTC date
// and time columns and confidence is a two-decimal percentage.
func ExportCSV(w io.Writer, records []api.AttendanceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}

	for _, rec := range records {
		ts := rec.Timestamp.UTC()
		row := []string{
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			rec.FullName,
			rec.Username,
			rec.Status,
			fmt.Sprintf("%.2f%%", rec.Confidence*100),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("could not write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("could not flush csv: %w", err)
	}
	return nil
}

// ExportFilename derives a default export name from the moment of export.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("attendance_report_%s.csv", now.UTC().Format("2006-01-02"))
}
