// SPDX-License-Identifier: MPL-2.0

package destpath

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
)

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error = %v", path, err)
	}
	if err := afero.WriteFile(fs, path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func TestResolveConflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing []string
		input    string
		want     string
	}{
		{"free path unchanged", nil, "/out/a.txt", "/out/a.txt"},
		{"first suffix", []string{"/out/a.txt"}, "/out/a.txt", "/out/a_1.txt"},
		{"skips taken suffixes", []string{"/out/a.txt", "/out/a_1.txt", "/out/a_2.txt"}, "/out/a.txt", "/out/a_3.txt"},
		{"no extension", []string{"/out/README"}, "/out/README", "/out/README_1"},
		{"hidden file", []string{"/out/.env"}, "/out/.env", "/out/.env_1"},
		{"only last extension split", []string{"/out/x.tar.gz"}, "/out/x.tar.gz", "/out/x.tar_1.gz"},
		{"directory occupies name", []string{"/out/dir/keep"}, "/out/dir", "/out/dir_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			for _, p := range tt.existing {
				touch(t, fs, p)
			}
			if got := ResolveConflict(fs, filepath.FromSlash(tt.input)); got != filepath.FromSlash(tt.want) {
				t.Errorf("ResolveConflict(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveConflict_NeverReusesAName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	seen := map[string]bool{}
	candidate := filepath.FromSlash("/out/photo.jpg")

	for range 25 {
		got := ResolveConflict(fs, candidate)
		if seen[got] {
			t.Fatalf("ResolveConflict returned %q twice", got)
		}
		seen[got] = true
		touch(t, fs, got)
	}
}

func TestResolve_TimestampFallbackTerminates(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	touch(t, fs, "/out/f.bin")
	for i := 1; i <= MaxSuffixAttempts; i++ {
		touch(t, fs, fmt.Sprintf("/out/f_%d.bin", i))
	}

	r := Resolver{Fs: fs, Clock: clock.NewFake(time.Unix(1234567890, 0))}
	want := filepath.FromSlash("/out/f_1234567890.bin")
	if got := r.Resolve(filepath.FromSlash("/out/f.bin")); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestIsSafeMemberPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"a/b/c.txt", true},
		{"file.txt", true},
		{"dir/", true},
		{"a/..b/c", true},
		{"a..", true},
		{"", false},
		{"/etc/passwd", false},
		{`\windows\system32`, false},
		{`C:\boot.ini`, false},
		{"C:relative", false},
		{"a/../../b", false},
		{"..", false},
		{`a\..\b`, false},
		{"a/b/..", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := IsSafeMemberPath(tt.path); got != tt.want {
				t.Errorf("IsSafeMemberPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
