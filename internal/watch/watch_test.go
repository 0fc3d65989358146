package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestPathWatcherDetectsTrackedWrite(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "sysctl.conf")
	if err := os.WriteFile(tracked, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got [][]string
	w := NewPathWatcher([]string{tracked}, func(changed []string) {
		mu.Lock()
		got = append(got, changed)
		mu.Unlock()
	})
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Give watcher time to start.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(tracked, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce + processing.
	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(got))
	}
	if len(got[0]) != 1 || got[0][0] != tracked {
		t.Errorf("trigger carried %v, want [%s]", got[0], tracked)
	}
}

func TestPathWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "tracked.conf")
	if err := os.WriteFile(tracked, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	triggers := 0
	w := NewPathWatcher([]string{tracked}, func([]string) {
		mu.Lock()
		triggers++
		mu.Unlock()
	})
	w.SetDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if triggers != 0 {
		t.Errorf("untracked file caused %d triggers", triggers)
	}
}

func TestPathWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "f.conf")
	if err := os.WriteFile(tracked, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	triggers := 0
	w := NewPathWatcher([]string{tracked}, func([]string) {
		mu.Lock()
		triggers++
		mu.Unlock()
	})
	w.SetDebounce(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(tracked, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if triggers != 1 {
		t.Errorf("expected burst coalesced into 1 trigger, got %d", triggers)
	}
}

func TestPollWatcherDetectsMtimeChange(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "f.conf")
	if err := os.WriteFile(tracked, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []string
	w := NewPollWatcher([]string{tracked}, func(changed []string) {
		mu.Lock()
		got = append(got, changed...)
		mu.Unlock()
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// Bump mtime well past the primed value.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(tracked, future, future); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatal("mtime change not detected")
	}
	if got[0] != tracked {
		t.Errorf("detected %s, want %s", got[0], tracked)
	}
}

func TestPollWatcherStartupIsNotAChange(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "f.conf")
	if err := os.WriteFile(tracked, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	triggers := 0
	w := NewPollWatcher([]string{tracked}, func([]string) {
		mu.Lock()
		triggers++
		mu.Unlock()
	}, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if triggers != 0 {
		t.Errorf("startup scan fired %d triggers", triggers)
	}
}

func TestIntervalSchedulerFires(t *testing.T) {
	var mu sync.Mutex
	triggers := 0
	s := NewIntervalScheduler(50*time.Millisecond, func([]string) {
		mu.Lock()
		triggers++
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 280*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if triggers < 2 {
		t.Errorf("expected at least 2 ticks, got %d", triggers)
	}
}

func TestIntervalSchedulerZeroDisabled(t *testing.T) {
	s := NewIntervalScheduler(0, func([]string) {
		t.Error("disabled scheduler fired")
	})
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}
