package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akbarov/facegate/internal/api"
	"github.com/akbarov/facegate/internal/capture"
	"github.com/akbarov/facegate/internal/config"
	"github.com/akbarov/facegate/internal/session"
)

// loadConfig loads the environment configuration with the optional station
// file applied on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if stationFile != "" {
		if err := cfg.ApplyStation(stationFile); err != nil {
			return nil, err
		}
	}
	if cfg.Server.URL == "" {
		return nil, errors.New("FACEGATE_URL environment variable is required")
	}
	return cfg, nil
}

// newSessionManager builds the service client and a session manager backed
// by the persisted credential store.
func newSessionManager(cfg *config.Config) (*api.Client, *session.Manager, error) {
	client, err := api.New(cfg.Server.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service client: %w", err)
	}
	store, err := session.NewStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return client, session.NewManager(client, store), nil
}

// requireSession restores the persisted session and fails when there is
// none, so authenticated commands report a consistent error.
func requireSession(ctx context.Context, manager *session.Manager) (session.Session, error) {
	if err := manager.Restore(ctx); err != nil {
		return session.Session{}, fmt.Errorf("could not restore session: %w", err)
	}
	current := manager.Current()
	if !current.Complete() {
		return session.Session{}, errors.New("not logged in, run 'facegate login' first")
	}
	return current, nil
}

// newCaptureController builds the configured capture device.
func newCaptureController(cfg *config.Config) (*capture.Controller, error) {
	var device capture.Device
	switch cfg.Capture.Device {
	case "file":
		if cfg.Capture.Path == "" {
			return nil, errors.New("FACEGATE_CAPTURE_PATH is required for the file capture device")
		}
		device = capture.NewFileDevice(cfg.Capture.Path)
	case "snapshot":
		if cfg.Capture.URL == "" {
			return nil, errors.New("FACEGATE_CAPTURE_URL is required for the snapshot capture device")
		}
		device = capture.NewSnapshotDevice(cfg.Capture.URL)
	default:
		return nil, fmt.Errorf("unknown capture device %q", cfg.Capture.Device)
	}
	return capture.NewController(device, cfg.Capture.MaxSize), nil
}

// discardRejectedSession clears the session and the stored credential
// when the service rejects the restored credential mid-command, so the
// next run asks for a fresh login instead of failing the same way.
// A 403 keeps the credential; that is a role problem, not a stale token.
func discardRejectedSession(manager *session.Manager, err error) error {
	var apiErr *api.Error
	if err == nil || !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}
	if clearErr := manager.Invalidate(); clearErr != nil {
		return fmt.Errorf("%v; discarding the stored credential also failed: %w", err, clearErr)
	}
	return fmt.Errorf("%w (stored credential discarded, run 'facegate login' again)", err)
}

// describeRejection returns the service's rejection detail, or an empty
// string when the error was a transport failure.
func describeRejection(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// captureFrame opens the device, takes a single frame and closes it again.
func captureFrame(ctx context.Context, cfg *config.Config) (*capture.Image, error) {
	controller, err := newCaptureController(cfg)
	if err != nil {
		return nil, err
	}
	if err := controller.Open(ctx); err != nil {
		return nil, fmt.Errorf("could not open capture device: %w", err)
	}
	defer controller.Close()

	img, release, err := controller.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not capture frame: %w", err)
	}
	release()
	return img, nil
}
