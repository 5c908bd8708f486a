package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunInvokesOnStartAndChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	if err := os.WriteFile(path, []byte("customer_id,order_date\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := make(chan struct{}, 16)
	w := New(path, 20*time.Millisecond, func(context.Context) error {
		calls <- struct{}{}
		return errors.New("errors are logged, not fatal")
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	wait := func(what string) {
		t.Helper()
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	wait("initial run")

	// unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("customer_id,order_date\n1,2024-01-01\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wait("change")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "orders.csv"), 0, func(context.Context) error { return nil }, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
