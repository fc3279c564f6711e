package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRootExpandsHomeAndCreatesDirectory(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	root, err := ResolveRoot("~/bot-data")
	if err != nil {
		t.Fatalf("ResolveRoot error: %v", err)
	}

	if want := filepath.Join(homeDir, "bot-data"); root != want {
		t.Fatalf("ResolveRoot root = %q, want %q", root, want)
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		t.Fatalf("data directory missing: %v", statErr)
	}
}

func TestResolveRootDefaultsUnderHome(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	root, err := ResolveRoot(" ")
	if err != nil {
		t.Fatalf("ResolveRoot error: %v", err)
	}
	if want := filepath.Join(homeDir, ".ircbot"); root != want {
		t.Fatalf("ResolveRoot root = %q, want %q", root, want)
	}
}

func TestResolveFile(t *testing.T) {
	root := t.TempDir()

	relative, err := ResolveFile(root, "logs/chat.log")
	if err != nil {
		t.Fatalf("ResolveFile error: %v", err)
	}
	if want := filepath.Join(root, "logs", "chat.log"); relative != want {
		t.Fatalf("ResolveFile = %q, want %q", relative, want)
	}
	if info, statErr := os.Stat(filepath.Dir(relative)); statErr != nil || !info.IsDir() {
		t.Fatalf("parent directory missing: %v", statErr)
	}

	absolute := filepath.Join(t.TempDir(), "notes.json")
	got, err := ResolveFile(root, absolute)
	if err != nil {
		t.Fatalf("ResolveFile error: %v", err)
	}
	if got != absolute {
		t.Fatalf("ResolveFile = %q, want %q", got, absolute)
	}

	if _, err := ResolveFile(root, "  "); CategoryFromError(err) != ErrorPathNotFound {
		t.Fatalf("error category = %q, want %q", CategoryFromError(err), ErrorPathNotFound)
	}
}

func TestCategoryFromError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: Corrupt("notes.json", errors.New("bad json")), want: ErrorCorrupt},
		{err: fmt.Errorf("read: %w", Corrupt("x", nil)), want: ErrorCorrupt},
		{err: fs.ErrNotExist, want: ErrorPathNotFound},
		{err: fs.ErrPermission, want: ErrorPermissionDenied},
		{err: errors.New("disk on fire"), want: ErrorIO},
	}

	for _, tt := range tests {
		if got := CategoryFromError(tt.err); got != tt.want {
			t.Fatalf("CategoryFromError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNormalizeIOErrorKeepsCategory(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))

	err := NormalizeIOError(statErr, "stat notes")
	if CategoryFromError(err) != ErrorPathNotFound {
		t.Fatalf("category = %q, want %q", CategoryFromError(err), ErrorPathNotFound)
	}
	if IsCorrupt(err) {
		t.Fatal("missing file must not be reported as corrupt")
	}
}
