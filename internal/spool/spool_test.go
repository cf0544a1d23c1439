package spool

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestSpool(t *testing.T) *Spool {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "spool.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSpoolAddAndPending(t *testing.T) {
	s := openTestSpool(t)
	ctx := context.Background()

	older := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	newer := older.Add(5 * time.Minute)

	// Insert out of capture order; Pending must return capture order.
	idNew, err := s.Add(ctx, []byte{0xff, 0xd8, 0x02}, newer)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	idOld, err := s.Add(ctx, []byte{0xff, 0xd8, 0x01}, older)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entries, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != idOld || entries[1].ID != idNew {
		t.Errorf("entries not in capture order: %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[0].Image[2] != 0x01 {
		t.Errorf("image payload corrupted: %v", entries[0].Image)
	}
	if !entries[0].CapturedAt.Equal(older) {
		t.Errorf("captured_at mismatch: %s vs %s", entries[0].CapturedAt, older)
	}
}

func TestSpoolRemove(t *testing.T) {
	s := openTestSpool(t)
	ctx := context.Background()

	id, err := s.Add(ctx, []byte{0xff}, time.Now())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}
	if err := s.Remove(ctx, id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}

	// Removing a gone entry is not an error.
	if err := s.Remove(ctx, id); err != nil {
		t.Errorf("second Remove failed: %v", err)
	}
}

func TestSpoolMarkAttempt(t *testing.T) {
	s := openTestSpool(t)
	ctx := context.Background()

	id, err := s.Add(ctx, []byte{0xff}, time.Now())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.MarkAttempt(ctx, id); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}
	if err := s.MarkAttempt(ctx, id); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}

	entries, err := s.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if entries[0].Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", entries[0].Attempts)
	}
}

func TestSpoolSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Add(ctx, []byte{0xff, 0xd8}, time.Now()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if n, _ := reopened.Count(ctx); n != 1 {
		t.Errorf("queued entry lost across reopen, count %d", n)
	}
}
