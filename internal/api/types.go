package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// Roles known to the attendance service.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is a registered person's directory record. It carries no
// credential and no embedding data beyond the number of enrolled face
// samples.
type Identity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	FaceSamples int    `json:"face_samples"`
	CreatedAt   string `json:"created_at"`
}

// UnmarshalJSON maps the service's user document onto the Identity
// projection. Stored face embeddings are opaque to the client; only their
// count is retained.
func (u *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             string            `json:"id"`
		Username       string            `json:"username"`
		Email          string            `json:"email"`
		FullName       string            `json:"full_name"`
		Role           string            `json:"role"`
		FaceEmbeddings []json.RawMessage `json:"face_embeddings"`
		CreatedAt      string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal identity: %w", err)
	}
	u.ID = raw.ID
	u.Username = raw.Username
	u.Email = raw.Email
	u.FullName = raw.FullName
	u.Role = raw.Role
	u.FaceSamples = len(raw.FaceEmbeddings)
	u.CreatedAt = raw.CreatedAt
	return nil
}

// NewUser holds the account fields for registration. All uniqueness and
// validity checks beyond required-field presence happen on the service.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResult is the service response to a successful password or face login.
type AuthResult struct {
	Credential string   `json:"access_token"`
	TokenType  string   `json:"token_type"`
	User       Identity `json:"user"`
}

// FaceRegisterResult reports a completed face enrollment.
type FaceRegisterResult struct {
	Message    string `json:"message"`
	TotalFaces int    `json:"total_faces"`
}

// OutcomeStatus enumerates the per-identity result of one attendance
// submission. "already marked" is a valid terminal state, not an error.
type OutcomeStatus string

const (
	OutcomeMarked        OutcomeStatus = "marked"
	OutcomeAlreadyMarked OutcomeStatus = "already_marked"
)

// Outcome is the per-identity result of a single attendance-marking
// submission. One capture may yield zero, one or many outcomes (multi-face
// capture). Confidence, when present, lies in [0,1].
type Outcome struct {
	Identity   Identity
	Status     OutcomeStatus
	Confidence *float64
}

// UnmarshalJSON splits the service's merged user+status document into the
// identity reference and the tagged outcome fields.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &o.Identity); err != nil {
		return err
	}
	var tag struct {
		Status     OutcomeStatus `json:"status"`
		Confidence *float64      `json:"confidence"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("unmarshal outcome: %w", err)
	}
	o.Status = tag.Status
	o.Confidence = tag.Confidence
	return nil
}

// MarshalJSON merges the identity reference and the outcome tags back into
// the service's flat document shape.
func (o Outcome) MarshalJSON() ([]byte, error) {
	identity, err := json.Marshal(o.Identity)
	if err != nil {
		return nil, err
	}
	var merged map[string]any
	if err := json.Unmarshal(identity, &merged); err != nil {
		return nil, err
	}
	merged["status"] = o.Status
	if o.Confidence != nil {
		merged["confidence"] = *o.Confidence
	}
	return json.Marshal(merged)
}

// ConfidencePercent renders the confidence as a one-decimal percentage for
// display, or an empty string when the service reported none.
func (o *Outcome) ConfidencePercent() string {
	if o.Confidence == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *o.Confidence*100)
}

// MarkResult is the full response to one attendance submission.
type MarkResult struct {
	Message  string    `json:"message"`
	Outcomes []Outcome `json:"users"`
}

// AttendanceRecord is an immutable historical attendance entry. The client
// only ever reads ranges of these.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	Confidence float64   `json:"confidence"`
}

// HistoryFilter selects attendance records. Empty fields mean unbounded;
// bounds are passed to the service exactly as given, the client performs no
// local date validation or reordering.
type HistoryFilter struct {
	UserID string
	Start  string
	End    string
}

// TodayReport is the current-day attendance aggregate.
type TodayReport struct {
	TotalUsers int `json:"total_users"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
}

// DashboardStats extends the daily aggregate with per-day counts for the
// trailing week, keyed by ISO date.
type DashboardStats struct {
	TotalUsers   int            `json:"total_users"`
	TodayPresent int            `json:"today_present"`
	TodayAbsent  int            `json:"today_absent"`
	WeeklyStats  map[string]int `json:"weekly_stats"`
}

// Settings is the service-side recognition and policy configuration.
type Settings struct {
	ID                   string  `json:"id,omitempty"`
	FaceThreshold        float64 `json:"face_threshold"`
	AttendancePolicy     string  `json:"attendance_policy"`
	LateThresholdMinutes int     `json:"late_threshold_minutes"`
}
