// SPDX-License-Identifier: MPL-2.0

// Package archive extracts ZIP, RAR, 7-Zip and tar-family archives through
// one contract, recovering member names and keeping every write inside the
// destination directory.
package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
	"github.com/unnest/unnest/internal/destpath"
	"github.com/unnest/unnest/internal/filename"
)

type (
	// Extractor extracts one archive format.
	Extractor interface {
		// Format returns the format this extractor handles.
		Format() Format
		// Extract writes the members of archivePath under destDir and returns
		// how many file members were written. Archive-level failures are
		// returned as *Error; context cancellation is returned as ctx.Err().
		Extract(ctx context.Context, archivePath, destDir string, flat bool) (int, error)
	}

	// Options carries the collaborators shared by all extractors.
	Options struct {
		// Fs receives extracted files. ZIP and tar archives are also read
		// through it; RAR and 7-Zip readers open archives by OS path.
		Fs        afero.Fs
		Recoverer *filename.Recoverer
		Logger    *slog.Logger
		Clock     clock.Clock
	}

	// Registry maps formats to extractors.
	Registry struct {
		extractors map[Format]Extractor
	}

	// formatExtractor binds a format-specific opener to the shared walker.
	formatExtractor struct {
		format Format
		open   opener
		walker *walker
	}
)

// NewRegistry returns a registry with every built-in extractor registered.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Recoverer == nil {
		r, err := filename.NewRecoverer(nil, filename.WithClock(opts.Clock), filename.WithLogger(opts.Logger))
		if err != nil {
			return nil, err
		}
		opts.Recoverer = r
	}

	w := &walker{
		fs:        opts.Fs,
		recoverer: opts.Recoverer,
		resolver:  destpath.Resolver{Fs: opts.Fs, Clock: opts.Clock},
		logger:    opts.Logger,
	}

	reg := &Registry{extractors: make(map[Format]Extractor)}
	reg.Register(&formatExtractor{format: FormatZip, open: zipOpener(opts.Fs), walker: w})
	reg.Register(&formatExtractor{format: FormatTarAny, open: tarOpener(opts.Fs), walker: w})
	reg.Register(&formatExtractor{format: FormatRar, open: openRar, walker: w})
	reg.Register(&formatExtractor{format: FormatSevenZip, open: openSevenZip, walker: w})
	return reg, nil
}

// Register adds or replaces the extractor for its format.
func (r *Registry) Register(e Extractor) {
	r.extractors[e.Format()] = e
}

// Lookup returns the extractor for f.
func (r *Registry) Lookup(f Format) (Extractor, bool) {
	e, ok := r.extractors[f]
	return e, ok
}

// Extract dispatches to the extractor for f, reporting KindUnsupportedFormat
// when none is registered.
func (r *Registry) Extract(ctx context.Context, f Format, archivePath, destDir string, flat bool) (int, error) {
	e, ok := r.Lookup(f)
	if !ok {
		return 0, newError(KindUnsupportedFormat, archivePath, fmt.Errorf("no extractor for format %s", f))
	}
	return e.Extract(ctx, archivePath, destDir, flat)
}

func (e *formatExtractor) Format() Format {
	return e.format
}

func (e *formatExtractor) Extract(ctx context.Context, archivePath, destDir string, flat bool) (n int, err error) {
	if err = ctx.Err(); err != nil {
		return 0, err
	}

	src, err := e.open(archivePath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			e.walker.logger.Debug("closing archive", "archive", archivePath, "error", closeErr)
		}
	}()

	if err = e.walker.fs.MkdirAll(destDir, dirPerm); err != nil {
		return 0, newError(KindOther, archivePath, fmt.Errorf("creating destination %s: %w", destDir, err))
	}
	return e.walker.run(ctx, src, archivePath, destDir, flat)
}
