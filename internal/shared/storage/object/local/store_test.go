package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"cv-builder/internal/shared/storage/object"
)

func TestPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	key, err := object.Key("exports", "guest:abc", "exp-1", "Ada Lovelace.html")
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	n, err := s.Put(ctx, key, "text/html", strings.NewReader("<h1>Ada</h1>"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if n != int64(len("<h1>Ada</h1>")) {
		t.Fatalf("unexpected size %d", n)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "<h1>Ada</h1>" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	s := New(t.TempDir())
	for _, key := range []string{"../secret", "/etc/passwd", "."} {
		if _, err := s.Put(context.Background(), key, "text/plain", strings.NewReader("x")); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
	if _, err := object.Key("exports", "u", "id", "../x"); err == nil {
		t.Fatalf("expected traversal file name to be rejected")
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(t.TempDir()).Open(ctx, "a/b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
