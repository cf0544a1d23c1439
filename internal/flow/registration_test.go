package flow

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
)

// fakeDirectory implements Directory in memory.
type fakeDirectory struct {
	registerErr     error
	registerFaceErr error
	registerCalls   int
	faceCalls       int
	lastFaceUserID  string
}

func (f *fakeDirectory) Register(ctx context.Context, user api.NewUser) (*api.Identity, error) {
	f.registerCalls++
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &api.Identity{ID: "u-new", Username: user.Username, FullName: user.FullName, Role: user.Role}, nil
}

func (f *fakeDirectory) RegisterFace(ctx context.Context, userID, faceImage string) (*api.FaceRegisterResult, error) {
	f.faceCalls++
	f.lastFaceUserID = userID
	if f.registerFaceErr != nil {
		return nil, f.registerFaceErr
	}
	return &api.FaceRegisterResult{Message: "Face registered successfully", TotalFaces: 1}, nil
}

func validUser() api.NewUser {
	return api.NewUser{
		Username: "alisher",
		Email:    "alisher@example.com",
		FullName: "Alisher Navoiy",
		Password: "secret123",
	}
}

func testImage() *capture.Image {
	return &capture.Image{ID: "cap-1", Data: []byte{0xff, 0xd8, 0xff}}
}

func TestRegistration_HappyPath(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewRegistration(dir)

	if r.Step() != StepDetails {
		t.Fatalf("expected StepDetails, got %s", r.Step())
	}

	if err := r.SubmitDetails(context.Background(), validUser()); err != nil {
		t.Fatalf("SubmitDetails failed: %v", err)
	}
	if r.Step() != StepFaceCapture {
		t.Fatalf("expected StepFaceCapture, got %s", r.Step())
	}
	if r.Created().ID != "u-new" {
		t.Errorf("expected created id 'u-new', got '%s'", r.Created().ID)
	}
	if r.Created().Role != api.RoleUser {
		t.Errorf("expected role defaulted to 'user', got '%s'", r.Created().Role)
	}

	if err := r.AttachFace(context.Background(), testImage()); err != nil {
		t.Fatalf("AttachFace failed: %v", err)
	}
	if r.Step() != StepDone {
		t.Fatalf("expected StepDone, got %s", r.Step())
	}
	if dir.lastFaceUserID != "u-new" {
		t.Errorf("face bound to wrong identity: %s", dir.lastFaceUserID)
	}
}

func TestRegistration_MissingFieldsRejectedLocally(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewRegistration(dir)

	err := r.SubmitDetails(context.Background(), api.NewUser{Username: "x"})
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError, got: %v", err)
	}
	if len(missing.Fields) != 3 {
		t.Errorf("expected 3 missing fields, got %v", missing.Fields)
	}
	if dir.registerCalls != 0 {
		t.Error("local validation must not reach the service")
	}
	if r.Step() != StepDetails {
		t.Errorf("expected to remain in StepDetails, got %s", r.Step())
	}
}

func TestRegistration_RemoteRejectionStaysInDetails(t *testing.T) {
	dir := &fakeDirectory{registerErr: &api.Error{Status: http.StatusBadRequest, Detail: "Username or email already exists"}}
	r := NewRegistration(dir)

	err := r.SubmitDetails(context.Background(), validUser())
	if !api.IsValidationError(err) {
		t.Fatalf("expected validation error, got: %v", err)
	}
	if r.Step() != StepDetails {
		t.Errorf("expected to remain in StepDetails, got %s", r.Step())
	}

	// Retry after correcting fixes the run without restarting.
	dir.registerErr = nil
	if err := r.SubmitDetails(context.Background(), validUser()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if r.Step() != StepFaceCapture {
		t.Errorf("expected StepFaceCapture after retry, got %s", r.Step())
	}
}

func TestRegistration_FaceFailureKeepsIdentity(t *testing.T) {
	dir := &fakeDirectory{registerFaceErr: &api.Error{Status: http.StatusBadRequest, Detail: "No face detected in image"}}
	r := NewRegistration(dir)

	if err := r.SubmitDetails(context.Background(), validUser()); err != nil {
		t.Fatalf("SubmitDetails failed: %v", err)
	}
	createdID := r.Created().ID

	if err := r.AttachFace(context.Background(), testImage()); err == nil {
		t.Fatal("expected face submission failure")
	}
	if r.Step() != StepFaceCapture {
		t.Errorf("failure must keep the wizard in StepFaceCapture, got %s", r.Step())
	}
	if r.Created().ID != createdID {
		t.Error("identity id must survive a failed face submission")
	}
	if dir.registerCalls != 1 {
		t.Error("account must not be re-created")
	}

	// Retry with a new capture reuses the same id.
	dir.registerFaceErr = nil
	if err := r.AttachFace(context.Background(), testImage()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if dir.lastFaceUserID != createdID {
		t.Errorf("retry used id '%s', want '%s'", dir.lastFaceUserID, createdID)
	}
	if r.Step() != StepDone {
		t.Errorf("expected StepDone, got %s", r.Step())
	}
}

func TestRegistration_SkipFace(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewRegistration(dir)

	if err := r.Skip(); err == nil {
		t.Fatal("Skip before Details must fail")
	}

	if err := r.SubmitDetails(context.Background(), validUser()); err != nil {
		t.Fatalf("SubmitDetails failed: %v", err)
	}
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if r.Step() != StepDone {
		t.Errorf("expected StepDone, got %s", r.Step())
	}
	if dir.faceCalls != 0 {
		t.Error("Skip must not submit a face sample")
	}
}

func TestRegistration_TerminalStepRejectsFurtherActions(t *testing.T) {
	dir := &fakeDirectory{}
	r := NewRegistration(dir)

	if err := r.SubmitDetails(context.Background(), validUser()); err != nil {
		t.Fatalf("SubmitDetails failed: %v", err)
	}
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}

	if err := r.SubmitDetails(context.Background(), validUser()); !errors.Is(err, ErrWrongStep) {
		t.Errorf("expected ErrWrongStep, got: %v", err)
	}
	if err := r.AttachFace(context.Background(), testImage()); !errors.Is(err, ErrWrongStep) {
		t.Errorf("expected ErrWrongStep, got: %v", err)
	}
}
