// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/archive"
)

// scan walks the work directory and returns every regular file with a
// recognized archive extension, in lexical walk order. Unreadable
// directories are logged and skipped; only a failure on the root aborts.
func (c *Controller) scan() ([]ArchiveDescriptor, error) {
	var found []ArchiveDescriptor

	err := afero.Walk(c.fs, c.opts.WorkDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == c.opts.WorkDir {
				return err
			}
			c.logger.Warn("skipping unreadable path", "path", c.rel(path), "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if _, skip := c.skip[filepath.Clean(path)]; skip {
			return nil
		}
		format, ok := archive.DetectFormat(path)
		if !ok {
			return nil
		}
		found = append(found, ArchiveDescriptor{Path: path, Size: info.Size(), Format: format})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
