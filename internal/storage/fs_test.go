package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempDataDir(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fsys, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fsys
}

func TestWriteAndRead(t *testing.T) {
	s := tempDataDir(t)
	content := []byte("id,userId,item\n1,1,milk\n")
	if err := s.Write("fridge.csv", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("fridge.csv")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempDataDir(t)
	_, err := s.Read("nope.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDataDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.csv",
		"/etc/shadow",
		"",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("ratings.csv", []byte("original"))
	if err := s.Write("ratings.csv", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("ratings.csv")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".recipebox-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteTracksChecksum(t *testing.T) {
	s := tempDataDir(t)
	_ = s.Write("recipes.json", []byte("{}"))
	sum, ok := s.lastWritten("recipes.json")
	if !ok || sum != checksum([]byte("{}")) {
		t.Errorf("lastWritten = %q, %v", sum, ok)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "recipebox-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestLockExclusive(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Lock(); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if err := b.Lock(); !errors.Is(err, ErrLocked) {
		t.Errorf("second lock err = %v, want ErrLocked", err)
	}
	if err := a.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := b.Lock(); err != nil {
		t.Errorf("lock after release: %v", err)
	}
	_ = b.Unlock()
}

func TestWatchReportsOutsideWrites(t *testing.T) {
	s := tempDataDir(t)
	if err := s.Write("fridge.csv", []byte("id,userId,item\n")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan string, 8)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Watch(ctx, logger, func(kind, name string) {
			events <- kind + ":" + name
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// Our own write must not be reported.
	if err := s.Write("fridge.csv", []byte("id,userId,item\n1,1,eggs\n")); err != nil {
		t.Fatal(err)
	}
	// An outside write must be.
	if err := os.WriteFile(filepath.Join(s.Root(), "fridge.csv"), []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev != "modified:fridge.csv" {
			t.Errorf("event = %q", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for modification event")
	}

	cancel()
	<-done
}
