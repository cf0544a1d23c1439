// Package flow holds the client-side state machines that drive multi-step
// operator tasks: two-phase user registration and attendance marking. The
// machines own their state exclusively; every transition is explicit and
// every failure leaves the machine in a well-defined stable state.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
)

// RegistrationStep enumerates the registration wizard states.
type RegistrationStep int

const (
	StepDetails RegistrationStep = iota
	StepFaceCapture
	StepDone
)

func (s RegistrationStep) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepFaceCapture:
		return "face-capture"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ErrWrongStep is returned when an operation does not apply to the
// machine's current step.
var ErrWrongStep = errors.New("operation not valid in current step")

// MissingFieldsError reports account fields rejected client-side. Only
// presence is checked locally; uniqueness and validity checks stay on the
// service.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Directory is the slice of the attendance service the registration flow
// needs.
type Directory interface {
	Register(ctx context.Context, user api.NewUser) (*api.Identity, error)
	RegisterFace(ctx context.Context, userID, faceImage string) (*api.FaceRegisterResult, error)
}

// Registration is the two-phase account creation wizard:
// Details -> FaceCapture -> Done. The face step is optional and
// retryable; the identity created in Details is never regenerated.
type Registration struct {
	dir     Directory
	step    RegistrationStep
	created api.Identity
}

// NewRegistration starts a registration run at the Details step.
func NewRegistration(dir Directory) *Registration {
	return &Registration{dir: dir, step: StepDetails}
}

// Step returns the current wizard step.
func (r *Registration) Step() RegistrationStep {
	return r.step
}

// Created returns the identity created in the Details step. Zero until
// Details succeeds.
func (r *Registration) Created() api.Identity {
	return r.created
}

// SubmitDetails creates the account. Missing required fields are rejected
// locally; any remote rejection keeps the wizard in Details with the
// service's reason surfaced. Success advances to FaceCapture carrying the
// created identity.
func (r *Registration) SubmitDetails(ctx context.Context, user api.NewUser) error {
	if r.step != StepDetails {
		return fmt.Errorf("%w: details already submitted (%s)", ErrWrongStep, r.step)
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"username", user.Username},
		{"email", user.Email},
		{"full_name", user.FullName},
		{"password", user.Password},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if user.Role == "" {
		user.Role = api.RoleUser
	}

	created, err := r.dir.Register(ctx, user)
	if err != nil {
		return err
	}

	r.created = *created
	r.step = StepFaceCapture
	return nil
}

// AttachFace binds a captured face sample to the identity created in
// Details. Failure keeps the wizard in FaceCapture so the operator can
// retry with a new capture; the created account survives regardless.
func (r *Registration) AttachFace(ctx context.Context, img *capture.Image) error {
	if r.step != StepFaceCapture {
		return fmt.Errorf("%w: no pending identity for face capture (%s)", ErrWrongStep, r.step)
	}

	if _, err := r.dir.RegisterFace(ctx, r.created.ID, img.DataURL()); err != nil {
		return err
	}

	r.step = StepDone
	return nil
}

// Skip closes the wizard without a face sample. The account keeps working
// with password login; a sample can be enrolled later.
func (r *Registration) Skip() error {
	if r.step != StepFaceCapture {
		return fmt.Errorf("%w: nothing to skip (%s)", ErrWrongStep, r.step)
	}
	r.step = StepDone
	return nil
}
