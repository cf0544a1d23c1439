package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/akbarov/facegate/internal/api"
)

// Source is the slice of the attendance service the reporting layer reads
// from. Aggregation happens on the service; the client renders.
type Source interface {
	History(ctx context.Context, filter api.HistoryFilter) ([]api.AttendanceRecord, error)
	TodayReport(ctx context.Context) (*api.TodayReport, error)
	Dashboard(ctx context.Context) (*api.DashboardStats, error)
}

// Aggregator renders attendance data for terminal and file output. It holds
// a filter that is only sent to the service when explicitly applied; editing
// the filter fields never triggers a fetch.
type Aggregator struct {
	source Source
	filter api.HistoryFilter
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// SetFilter replaces the pending filter without fetching anything.
func (a *Aggregator) SetFilter(filter api.HistoryFilter) {
	a.filter = filter
}

// Filter returns the pending filter.
func (a *Aggregator) Filter() api.HistoryFilter {
	return a.filter
}

// Apply fetches the history rows matching the pending filter. The bounds go
// to the service exactly as set, including a start after the end, which
// legitimately yields zero rows.
func (a *Aggregator) Apply(ctx context.Context) ([]api.AttendanceRecord, error) {
	records, err := a.source.History(ctx, a.filter)
	if err != nil {
		return nil, fmt.Errorf("could not fetch attendance history: %w", err)
	}
	return records, nil
}

// Today fetches the current-day aggregate.
func (a *Aggregator) Today(ctx context.Context) (*api.TodayReport, error) {
	report, err := a.source.TodayReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch today's report: %w", err)
	}
	return report, nil
}

// Summary renders the admin dashboard aggregate as terminal text. Weekly
// counts are listed in ascending date order so the same stats always render
// the same way.
func (a *Aggregator) Summary(ctx context.Context) (string, error) {
	stats, err := a.source.Dashboard(ctx)
	if err != nil {
		return "", fmt.Errorf("could not fetch dashboard stats: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total users:   %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "Present today: %d\n", stats.TodayPresent)
	fmt.Fprintf(&b, "Absent today:  %d\n", stats.TodayAbsent)

	if len(stats.WeeklyStats) > 0 {
		days := make([]string, 0, len(stats.WeeklyStats))
		for day := range stats.WeeklyStats {
			days = append(days, day)
		}
		sort.Strings(days)

		b.WriteString("\nLast 7 days:\n")
		for _, day := range days {
			fmt.Fprintf(&b, "  %s  %d\n", day, stats.WeeklyStats[day])
		}
	}

	return b.String(), nil
}
