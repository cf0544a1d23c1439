package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
)

// AttendanceState enumerates the marking machine states. Submitted is
// distinct from Capturing so a second capture cannot start while the first
// is still awaiting the service's response.
type AttendanceState int

const (
	StateIdle AttendanceState = iota
	StateCapturing
	StateSubmitted
	StateResult
)

func (s AttendanceState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateSubmitted:
		return "submitted"
	case StateResult:
		return "result"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrSubmissionInFlight rejects a second submission while one is
	// already awaiting the service.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrNoMatches reports a submission that detected faces but matched
	// no registered identity. The flow returns to Idle.
	ErrNoMatches = errors.New("no registered faces matched")
)

// Marker is the slice of the attendance service the marking flow needs.
type Marker interface {
	MarkAttendance(ctx context.Context, faceImage string) (*api.MarkResult, error)
}

// Attendance drives one marking station:
// Idle -> Capturing -> Submitted -> Result. At most one submission is in
// flight per instance; any failure returns to Idle with the reason
// surfaced, never silently retried.
type Attendance struct {
	marker Marker

	mu     sync.Mutex
	state  AttendanceState
	result *api.MarkResult
}

// NewAttendance creates a marking flow in the Idle state.
func NewAttendance(marker Marker) *Attendance {
	return &Attendance{marker: marker, state: StateIdle}
}

// State returns the machine state as of this instant.
func (a *Attendance) State() AttendanceState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Begin moves Idle -> Capturing, opening the capture step.
func (a *Attendance) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StateIdle:
		a.state = StateCapturing
		return nil
	case StateSubmitted:
		return ErrSubmissionInFlight
	default:
		return fmt.Errorf("%w: cannot begin capture in state %s", ErrWrongStep, a.state)
	}
}

// Cancel abandons the capture step without submitting, Capturing -> Idle.
func (a *Attendance) Cancel() {
	a.mu.Lock()
	if a.state == StateCapturing {
		a.state = StateIdle
	}
	a.mu.Unlock()
}

// Submit sends the captured frame for marking. While the request is in
// flight the machine sits in Submitted and refuses further submissions.
// On success it advances to Result holding the full outcome list; every
// failure path drops back to Idle with the reason surfaced. Zero outcomes
// count as a failure (ErrNoMatches).
func (a *Attendance) Submit(ctx context.Context, img *capture.Image) (*api.MarkResult, error) {
	a.mu.Lock()
	switch a.state {
	case StateCapturing:
		// proceed
	case StateSubmitted:
		a.mu.Unlock()
		return nil, ErrSubmissionInFlight
	default:
		state := a.state
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot submit in state %s", ErrWrongStep, state)
	}
	a.state = StateSubmitted
	a.mu.Unlock()

	result, err := a.marker.MarkAttendance(ctx, img.DataURL())

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateIdle
		return nil, err
	}
	if len(result.Outcomes) == 0 {
		a.state = StateIdle
		return nil, ErrNoMatches
	}

	a.state = StateResult
	a.result = result
	return result, nil
}

// Result returns the outcome list of the completed submission, or nil
// outside the Result state.
func (a *Attendance) Result() *api.MarkResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateResult {
		return nil
	}
	return a.result
}

// Reset returns Result -> Idle so the operator can mark again. There is
// no automatic reset.
func (a *Attendance) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateResult {
		return fmt.Errorf("%w: nothing to reset in state %s", ErrWrongStep, a.state)
	}
	a.state = StateIdle
	a.result = nil
	return nil
}
