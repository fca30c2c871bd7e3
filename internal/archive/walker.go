// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/destpath"
	"github.com/unnest/unnest/internal/filename"
)

// MaxLoggedNames is how many extracted names flat mode logs individually
// before switching to a single marker line.
const MaxLoggedNames = 10

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// walker is the member-iteration skeleton shared by every format.
type walker struct {
	fs        afero.Fs
	recoverer *filename.Recoverer
	resolver  destpath.Resolver
	logger    *slog.Logger
}

// walkState tracks one archive's progress.
type walkState struct {
	archivePath string
	destDir     string
	flat        bool
	extracted   int
	failed      int
	skipped     int
	logged      int
}

func (w *walker) run(ctx context.Context, src memberSource, archivePath, destDir string, flat bool) (int, error) {
	st := &walkState{archivePath: archivePath, destDir: destDir, flat: flat}

	for {
		if err := ctx.Err(); err != nil {
			return st.extracted, err
		}

		m, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if KindOf(err) == KindPasswordProtected {
				return st.extracted, err
			}
			if st.extracted > 0 {
				w.logger.Warn("archive ended early, keeping extracted members",
					"archive", archivePath, "extracted", st.extracted, "error", err)
				return st.extracted, nil
			}
			return 0, newError(KindCorrupted, archivePath, fmt.Errorf("reading members: %w", err))
		}

		if err := w.member(ctx, st, m); err != nil {
			if ctx.Err() != nil {
				return st.extracted, ctx.Err()
			}
			if KindOf(err) == KindPasswordProtected {
				return st.extracted, err
			}
			st.failed++
			w.logger.Warn("member extraction failed", "archive", archivePath, "member", m.RawName().String(), "error", err)
		}
	}

	if st.flat && st.logged > MaxLoggedNames {
		w.logger.Info("extracted more files", "archive", archivePath, "more", st.extracted-MaxLoggedNames)
	}

	// An archive that had entries but yielded none is kept for inspection
	// instead of being deleted as a success.
	st.skipped += src.Skipped()
	if st.extracted == 0 && st.skipped+st.failed > 0 {
		return 0, newError(KindCorrupted, archivePath,
			fmt.Errorf("no member could be extracted (%d skipped, %d failed)", st.skipped, st.failed))
	}
	return st.extracted, nil
}

// member extracts a single entry. Skipped entries return nil.
func (w *walker) member(ctx context.Context, st *walkState, m Member) error {
	raw := m.RawName()

	if st.flat {
		if m.IsDir() {
			return nil
		}
		base := raw.Base()
		if base.IsEmpty() {
			st.skipped++
			w.logger.Warn("skipping member without a file name", "archive", st.archivePath)
			return nil
		}
		target := w.resolver.Resolve(filepath.Join(st.destDir, w.recoverer.Recover(base)))
		if err := w.write(ctx, m, target); err != nil {
			return err
		}
		st.extracted++
		st.logged++
		if st.logged <= MaxLoggedNames {
			w.logger.Info("extracted", "file", filepath.Base(target))
		}
		return nil
	}

	if !destpath.IsSafeMemberPath(raw.String()) {
		st.skipped++
		w.logger.Warn("skipping unsafe member path", "archive", st.archivePath, "member", raw.String())
		return nil
	}
	segs := raw.Segments()
	if len(segs) == 0 {
		if !m.IsDir() {
			st.skipped++
		}
		return nil
	}
	parts := make([]string, 0, len(segs)+1)
	parts = append(parts, st.destDir)
	for _, seg := range segs {
		parts = append(parts, w.recoverer.Recover(seg))
	}
	target := filepath.Join(parts...)

	if m.IsDir() {
		return w.fs.MkdirAll(target, dirPerm)
	}
	if err := w.write(ctx, m, target); err != nil {
		return err
	}
	st.extracted++
	w.logger.Debug("extracted", "file", target)
	return nil
}

// write streams one member to target, replacing any existing file.
func (w *walker) write(ctx context.Context, m Member, target string) (err error) {
	if err = w.fs.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	rc, err := m.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := w.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, contextReader{ctx: ctx, r: rc}); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// contextReader stops a copy as soon as ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
