package fsutil_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yaklabco/gorulesync/pkg/fsutil"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	t.Run("replaces content and applies mode", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeFile(t, dir, "a.go", "original")

		if err := fsutil.WriteAtomic(context.Background(), path, []byte("fixed"), 0o600); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "fixed" {
			t.Errorf("content = %q, want %q", got, "fixed")
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected no temp files left behind, found %d entries", len(entries))
		}
	})

	t.Run("default mode", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "new.go")

		if err := fsutil.WriteAtomic(context.Background(), path, []byte("x"), 0); err != nil {
			t.Fatalf("WriteAtomic() error = %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != fsutil.DefaultFileMode {
			t.Errorf("mode = %v, want %v", info.Mode().Perm(), fsutil.DefaultFileMode)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nope", "a.go")
		if err := fsutil.WriteAtomic(context.Background(), path, []byte("x"), 0); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestWriteIfUnchanged(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "a.py", "eval(x)\n")
	_, snap, err := fsutil.Read(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("edited elsewhere\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err = fsutil.WriteIfUnchanged(context.Background(), snap, []byte("safe_eval(x)\n"))
	if !errors.Is(err, fsutil.ErrModified) {
		t.Fatalf("err = %v, want ErrModified", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "edited elsewhere\n" {
		t.Errorf("concurrent edit was overwritten: %q", got)
	}
}
