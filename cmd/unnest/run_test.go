// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
	"github.com/unnest/unnest/internal/config"
	"github.com/unnest/unnest/internal/engine"
	"github.com/unnest/unnest/internal/testutil"
)

type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cp := *s.cfg
	cp.Encodings = append([]string(nil), s.cfg.Encodings...)
	return &cp, nil
}

func quietConfig() staticConfig {
	cfg := config.DefaultConfig()
	cfg.Log.File = false
	return staticConfig{cfg: cfg}
}

type harness struct {
	deps           Dependencies
	stdout, stderr *bytes.Buffer
}

func newHarness(fs afero.Fs) *harness {
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.deps = Dependencies{
		Config: quietConfig(),
		Fs:     fs,
		Clock:  clock.NewFake(time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)),
		Stdout: h.stdout,
		Stderr: h.stderr,
	}
	return h
}

func (h *harness) run(ctx context.Context, args ...string) int {
	return Execute(ctx, h.deps, args)
}

func TestExecute_NestedArchives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inner := testutil.TarBytes(t, "gzip", testutil.Files("deep/note.txt", "deep"))
	testutil.WriteZip(t, filepath.Join(dir, "outer.zip"), []testutil.Entry{
		{Name: "top.txt", Body: "top"},
		{Name: "inner.tar.gz", Body: string(inner)},
	})

	h := newHarness(afero.NewOsFs())
	if code := h.run(context.Background(), "--no-backup", dir); code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, h.stderr)
	}

	got := testutil.ListFiles(t, dir)
	want := []string{"outer/inner/deep/note.txt", "outer/top.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", got, want)
	}
	for _, s := range []string{"Succeeded", "no archives left", "Freed space"} {
		if !strings.Contains(h.stdout.String(), s) {
			t.Errorf("summary missing %q:\n%s", s, h.stdout)
		}
	}
	if !strings.Contains(h.stderr.String(), "round started") {
		t.Errorf("console log missing round lines:\n%s", h.stderr)
	}
}

func TestExecute_BackupAndKeepOriginal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "work")
	testutil.WriteZip(t, filepath.Join(dir, "a.zip"), testutil.Files("a.txt", "a"))

	h := newHarness(afero.NewOsFs())
	if code := h.run(context.Background(), "--keep-original", dir); code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, h.stderr)
	}

	backup := filepath.Join(root, "work_backup_20240309_140506")
	if !testutil.Exists(filepath.Join(backup, "a.zip")) {
		t.Errorf("backup missing, root has %v", testutil.ListFiles(t, root))
	}
	if !testutil.Exists(filepath.Join(dir, "a.zip")) {
		t.Error("original removed despite --keep-original")
	}
	if strings.Contains(h.stdout.String(), "Freed space") {
		t.Errorf("freed space shown while keeping originals:\n%s", h.stdout)
	}
}

func TestExecute_InvalidDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	testutil.MustWriteFile(t, file, "x")

	for _, target := range []string{filepath.Join(dir, "missing"), file} {
		h := newHarness(afero.NewOsFs())
		if code := h.run(context.Background(), target); code != exitDirectoryInvalid {
			t.Errorf("%s: exit code = %d, want %d", target, code, exitDirectoryInvalid)
		}
		if !strings.Contains(h.stderr.String(), "failed to open directory") {
			t.Errorf("%s: stderr missing actionable error:\n%s", target, h.stderr)
		}
	}
}

func TestExecute_BackupFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteZip(t, filepath.Join(dir, "a.zip"), testutil.Files("a.txt", "a"))

	h := newHarness(afero.NewReadOnlyFs(afero.NewOsFs()))
	if code := h.run(context.Background(), dir); code != exitBackupFailed {
		t.Fatalf("exit code = %d, want %d\nstderr:\n%s", code, exitBackupFailed, h.stderr)
	}
	if !strings.Contains(h.stderr.String(), "failed to back up directory") {
		t.Errorf("stderr missing backup error:\n%s", h.stderr)
	}
	if testutil.Exists(filepath.Join(dir, "a")) {
		t.Error("extraction ran after a failed backup")
	}
}

func TestExecute_Interrupted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteZip(t, filepath.Join(dir, "a.zip"), testutil.Files("a.txt", "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness(afero.NewOsFs())
	if code := h.run(ctx, "--no-backup", dir); code != exitInterrupted {
		t.Fatalf("exit code = %d, want %d\nstderr:\n%s", code, exitInterrupted, h.stderr)
	}
	if !testutil.Exists(filepath.Join(dir, "a.zip")) {
		t.Error("archive removed by an interrupted run")
	}
	if !strings.Contains(h.stdout.String(), "interrupted") {
		t.Errorf("summary should report the interruption:\n%s", h.stdout)
	}
}

func TestExecute_Report(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteZip(t, filepath.Join(dir, "a.zip"), testutil.Files("a.txt", "a"))
	reportPath := filepath.Join(t.TempDir(), "run.toml")

	h := newHarness(afero.NewOsFs())
	if code := h.run(context.Background(), "--no-backup", "--report", reportPath, dir); code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, h.stderr)
	}
	text := testutil.MustReadFile(t, reportPath)
	for _, want := range []string{"[summary]", "success = 1", "no-archives"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestExecute_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	h := newHarness(afero.NewOsFs())
	if code := h.run(context.Background(), "--max-rounds", "0", t.TempDir()); code != exitFailure {
		t.Fatalf("exit code = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(h.stderr.String(), "max_rounds") {
		t.Errorf("stderr should name the bad option:\n%s", h.stderr)
	}
}

func TestExecute_NothingToDo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "readme.txt"), "hi")

	h := newHarness(afero.NewOsFs())
	if code := h.run(context.Background(), "--no-backup", dir); code != 0 {
		t.Fatalf("exit code = %d\nstderr:\n%s", code, h.stderr)
	}
	if !strings.Contains(h.stderr.String(), "no supported archives found") {
		t.Errorf("expected the no-archives warning:\n%s", h.stderr)
	}
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	stats := engine.Stats{
		Found: 2, TotalSize: 4096, Processed: 2, Success: 1, Error: 1,
		ExtractedFiles: 3, FreedSize: 2048, Rounds: 1,
		StopReason: engine.StopStalled,
		Failures:   []engine.ArchiveFailure{{Round: 1, Path: "/w/locked.zip"}},
	}

	var out bytes.Buffer
	renderSummary(&out, summary{dir: "/w", deleteOriginal: true, stats: stats})
	text := out.String()
	for _, want := range []string{"/w", "4.0 KiB", "Freed space", "2.0 KiB", "no progress in last round", "/w/locked.zip"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}

	out.Reset()
	renderSummary(&out, summary{dir: "/w", deleteOriginal: false, stats: stats})
	if strings.Contains(out.String(), "Freed space") {
		t.Errorf("freed space shown with delete disabled:\n%s", out.String())
	}
}
