// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
)

// BackupTimestampFormat is the suffix layout of backup directory names.
const BackupTimestampFormat = "20060102_150405"

// ErrBackupFailed wraps every error returned by Backup.
var ErrBackupFailed = errors.New("backup failed")

// BackupPath returns the first free "<name>_backup_<timestamp>[_n]" sibling
// of workDir.
func BackupPath(fs afero.Fs, workDir string, c clock.Clock) string {
	workDir = filepath.Clean(workDir)
	base := fmt.Sprintf("%s_backup_%s", filepath.Base(workDir), clock.OrReal(c).Now().Format(BackupTimestampFormat))
	candidate := filepath.Join(filepath.Dir(workDir), base)

	for i := 1; ; i++ {
		// Any stat failure counts as free; creating the tree reports the real error.
		if _, err := fs.Stat(candidate); err != nil {
			return candidate
		}
		candidate = filepath.Join(filepath.Dir(workDir), fmt.Sprintf("%s_%d", base, i))
	}
}

// Backup copies the whole work directory tree to a fresh sibling directory
// and returns its path. Symlinks are recreated when the filesystem
// supports them.
func Backup(fs afero.Fs, workDir string, c clock.Clock) (string, error) {
	workDir = filepath.Clean(workDir)
	dest := BackupPath(fs, workDir, c)

	err := afero.Walk(fs, workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return fs.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&os.ModeSymlink != 0:
			return copySymlink(fs, path, target)
		case info.Mode().IsRegular():
			return copyFile(fs, path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
	if err != nil {
		return dest, fmt.Errorf("%w: copying %s to %s: %w", ErrBackupFailed, workDir, dest, err)
	}
	return dest, nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

func copySymlink(fs afero.Fs, src, dst string) error {
	reader, canRead := fs.(afero.LinkReader)
	linker, canLink := fs.(afero.Linker)
	if !canRead || !canLink {
		return nil
	}
	link, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(link, dst)
}

// IsBackupDir reports whether name looks like a directory produced by Backup.
func IsBackupDir(name string) bool {
	return strings.Contains(filepath.Base(name), "_backup_")
}
