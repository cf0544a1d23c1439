// Package capture produces still frames for the face-login, enrollment and
// attendance flows. A Controller wraps a Device and guarantees exactly one
// image per capture, refuses new captures while a previous capture is being
// submitted, and releases the device on every exit path.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Error classes. Device acquisition failures are reported distinctly from
// capture failures so callers can abort without attempting a network call.
var (
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrCaptureFailed     = errors.New("capture failed")
	ErrNotOpen           = errors.New("capture device not open")
	ErrSubmissionPending = errors.New("previous capture is still being submitted")
)

// Image is a single captured still frame, JPEG-encoded. It is owned by the
// flow that requested it and discarded after submission.
type Image struct {
	ID      string
	Data    []byte
	TakenAt time.Time
}

// DataURL renders the frame in the wire format the attendance service
// expects for face payloads.
func (img *Image) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Device is a source of raw frames. Implementations must make Close safe
// to call at any time, including mid-stream.
type Device interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) ([]byte, error)
	Close() error
}

// Controller drives the device-to-image pipeline. It is safe for use from
// multiple goroutines; at most one capture's submission may be pending at
// a time.
type Controller struct {
	device  Device
	maxSize int

	mu      sync.Mutex
	opened  bool
	pending bool
}

// DefaultMaxSize bounds the longer frame edge before submission. Large
// frames only slow the service down without improving detection.
const DefaultMaxSize = 1280

// NewController creates a capture controller. maxSize <= 0 selects
// DefaultMaxSize.
func NewController(device Device, maxSize int) *Controller {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Controller{device: device, maxSize: maxSize}
}

// Open activates the device stream.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return nil
	}
	if err := c.device.Open(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	c.opened = true
	return nil
}

// Capture freezes the current frame into an Image. The returned release
// func must be called when the caller's submission completes, success or
// failure; until then further captures fail with ErrSubmissionPending.
// The release func is idempotent.
func (c *Controller) Capture(ctx context.Context) (*Image, func(), error) {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return nil, nil, ErrNotOpen
	}
	if c.pending {
		c.mu.Unlock()
		return nil, nil, ErrSubmissionPending
	}
	c.pending = true
	c.mu.Unlock()

	release := sync.OnceFunc(func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	})

	raw, err := c.device.Frame(ctx)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	encoded, err := EncodeFrame(raw, c.maxSize)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	img := &Image{
		ID:      uuid.NewString(),
		Data:    encoded,
		TakenAt: time.Now(),
	}
	return img, release, nil
}

// Close releases the device unconditionally, regardless of whether a
// capture or submission is in progress.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return nil
	}
	c.opened = false
	if err := c.device.Close(); err != nil {
		return fmt.Errorf("close capture device: %w", err)
	}
	return nil
}
