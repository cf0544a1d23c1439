package api

import (
	"context"
	"net/url"
)

// MarkAttendance submits a captured frame (base64 data URL) for attendance
// marking. The service may match zero, one or many faces; each match comes
// back as its own Outcome. "No faces detected" is a validation error.
func (c *Client) MarkAttendance(ctx context.Context, faceImage string) (*MarkResult, error) {
	return doPostJSON[MarkResult](ctx, c, "attendance/mark", map[string]string{
		"face_image": faceImage,
	})
}

// History fetches attendance records matching the filter. Unset filter
// fields mean unbounded; set fields are forwarded to the service verbatim.
// Records are returned in the order the service provides them.
func (c *Client) History(ctx context.Context, filter HistoryFilter) ([]AttendanceRecord, error) {
	params := url.Values{}
	if filter.UserID != "" {
		params.Set("user_id", filter.UserID)
	}
	if filter.Start != "" {
		params.Set("start_date", filter.Start)
	}
	if filter.End != "" {
		params.Set("end_date", filter.End)
	}

	endpoint := "attendance/history"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	records, err := doGetJSON[[]AttendanceRecord](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	return *records, nil
}

// TodayReport fetches the current-day attendance aggregate. Admin only.
func (c *Client) TodayReport(ctx context.Context) (*TodayReport, error) {
	return doGetJSON[TodayReport](ctx, c, "attendance/report")
}

// Dashboard fetches daily and weekly attendance counts. Admin only.
func (c *Client) Dashboard(ctx context.Context) (*DashboardStats, error) {
	return doGetJSON[DashboardStats](ctx, c, "admin/dashboard")
}
