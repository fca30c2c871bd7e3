// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
	"github.com/unnest/unnest/internal/testutil"
)

func TestBackup_CopiesTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	work := filepath.Join(root, "work")
	testutil.MustWriteFile(t, filepath.Join(work, "a.zip"), "zip")
	testutil.MustWriteFile(t, filepath.Join(work, "sub", "b.txt"), "text")
	if err := os.Symlink("b.txt", filepath.Join(work, "sub", "link")); err != nil {
		t.Fatal(err)
	}

	fake := clock.NewFake(time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC))
	dest, err := Backup(afero.NewOsFs(), work, fake)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if want := filepath.Join(root, "work_backup_20240309_140506"); dest != want {
		t.Errorf("Backup() = %q, want %q", dest, want)
	}
	if got := testutil.MustReadFile(t, filepath.Join(dest, "sub", "b.txt")); got != "text" {
		t.Errorf("copied b.txt = %q", got)
	}
	if target, err := os.Readlink(filepath.Join(dest, "sub", "link")); err != nil || target != "b.txt" {
		t.Errorf("symlink copy = %q, %v", target, err)
	}
	if !IsBackupDir(dest) {
		t.Errorf("IsBackupDir(%q) = false", dest)
	}

	second, err := Backup(afero.NewOsFs(), work, fake)
	if err != nil {
		t.Fatalf("second Backup() error = %v", err)
	}
	if want := filepath.Join(root, "work_backup_20240309_140506_1"); second != want {
		t.Errorf("second Backup() = %q, want %q", second, want)
	}
}

func TestBackup_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := Backup(afero.NewMemMapFs(), "/does/not/exist", clock.NewFake(time.Time{}))
	if !errors.Is(err, ErrBackupFailed) {
		t.Errorf("Backup() error = %v, want ErrBackupFailed", err)
	}
}

func TestBackupPath_Deconflicts(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	fake := clock.NewFake(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, d := range []string{"/data/w_backup_20200101_000000", "/data/w_backup_20200101_000000_1"} {
		if err := fs.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if got := BackupPath(fs, "/data/w/", fake); got != "/data/w_backup_20200101_000000_2" {
		t.Errorf("BackupPath() = %q", got)
	}
}
