package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileDevice serves frames from a still image file or a directory of
// frames on disk. It is the kiosk fallback when no camera endpoint is
// configured, and the workhorse for tests and bulk enrollment.
type FileDevice struct {
	path string

	mu     sync.Mutex
	frames []string
	next   int
}

// NewFileDevice creates a device reading from path, either a single image
// file or a directory scanned for image files in name order.
func NewFileDevice(path string) *FileDevice {
	return &FileDevice{path: path}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}

func (d *FileDevice) Open(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := os.Stat(d.path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", d.path, err)
	}

	if !info.IsDir() {
		d.frames = []string{d.path}
		d.next = 0
		return nil
	}

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", d.path, err)
	}
	var frames []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		frames = append(frames, filepath.Join(d.path, entry.Name()))
	}
	if len(frames) == 0 {
		return fmt.Errorf("no image files in %s", d.path)
	}
	sort.Strings(frames)
	d.frames = frames
	d.next = 0
	return nil
}

func (d *FileDevice) Frame(_ context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frames == nil {
		return nil, fmt.Errorf("device not open")
	}
	if d.next >= len(d.frames) {
		return nil, fmt.Errorf("no more frames")
	}
	path := d.frames[d.next]
	d.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}
	return data, nil
}

func (d *FileDevice) Close() error {
	d.mu.Lock()
	d.frames = nil
	d.next = 0
	d.mu.Unlock()
	return nil
}

// SnapshotDevice pulls still frames from an IP camera's HTTP snapshot
// endpoint (e.g. http://cam.local/shot.jpg). Open probes the endpoint so
// an unreachable or forbidden camera surfaces as a device error before any
// flow starts.
type SnapshotDevice struct {
	url   string
	httpc *http.Client
}

// NewSnapshotDevice creates a device for the given snapshot URL.
func NewSnapshotDevice(url string) *SnapshotDevice {
	return &SnapshotDevice{
		url:   url,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *SnapshotDevice) Open(ctx context.Context) error {
	// A probe fetch verifies reachability and access up front.
	_, err := d.fetch(ctx)
	if err != nil {
		return fmt.Errorf("probe snapshot endpoint: %w", err)
	}
	return nil
}

func (d *SnapshotDevice) Frame(ctx context.Context) ([]byte, error) {
	return d.fetch(ctx)
}

func (d *SnapshotDevice) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot body: %w", err)
	}
	return data, nil
}

func (d *SnapshotDevice) Close() error {
	d.httpc.CloseIdleConnections()
	return nil
}
