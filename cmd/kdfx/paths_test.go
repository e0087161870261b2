package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.kdf", "a.KDF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.kdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("dir is sorted and filtered", func(t *testing.T) {
		got, err := resolveInputs(nil, dir)
		if err != nil {
			t.Fatalf("resolveInputs: %v", err)
		}
		want := []string{filepath.Join(dir, "a.KDF"), filepath.Join(dir, "b.kdf")}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v want %v", got, want)
		}
	})

	t.Run("files first and de-duplicated", func(t *testing.T) {
		explicit := filepath.Join(dir, "b.kdf")
		got, err := resolveInputs([]string{explicit, " ", explicit + "/"}, dir)
		if err != nil {
			t.Fatalf("resolveInputs: %v", err)
		}
		want := []string{explicit, filepath.Join(dir, "a.KDF")}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v want %v", got, want)
		}
	})

	t.Run("nothing given", func(t *testing.T) {
		if _, err := resolveInputs(nil, ""); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("empty dir", func(t *testing.T) {
		if _, err := resolveInputs(nil, t.TempDir()); err == nil {
			t.Fatal("expected error for directory without .kdf files")
		}
	})

	t.Run("dir is a file", func(t *testing.T) {
		if _, err := resolveInputs(nil, filepath.Join(dir, "notes.txt")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestResolveOutDir(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(envKdfxOutDir, "/env")
		if got := resolveOutDir("flag/", "cfg"); got != "flag" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("env before config", func(t *testing.T) {
		t.Setenv(envKdfxOutDir, "/env")
		if got := resolveOutDir("", "cfg"); got != "/env" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("config before default", func(t *testing.T) {
		t.Setenv(envKdfxOutDir, "")
		if got := resolveOutDir("", "cfg"); got != "cfg" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("default is ./out", func(t *testing.T) {
		t.Setenv(envKdfxOutDir, "")
		if got := resolveOutDir("", ""); got != filepath.Join(".", "out") {
			t.Fatalf("got %q", got)
		}
	})
}
