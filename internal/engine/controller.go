// SPDX-License-Identifier: MPL-2.0

// Package engine runs the round-based scan, extract and delete loop over a
// directory tree until no archive is left, a round makes no progress, or
// the round cap is reached.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/archive"
	"github.com/unnest/unnest/internal/clock"
)

// DefaultMaxRounds caps the loop for archives that keep producing archives.
const DefaultMaxRounds = 50

// State is the controller's position in its state machine.
type State int

const (
	// StateIdle is the state before Run.
	StateIdle State = iota
	// StateScanning walks the tree for archives.
	StateScanning
	// StateExtractingRound extracts the archives of one scan.
	StateExtractingRound
	// StateDone is terminal.
	StateDone
)

type (
	// Dispatcher extracts one archive of a known format.
	// *archive.Registry implements it.
	Dispatcher interface {
		Extract(ctx context.Context, f archive.Format, archivePath, destDir string, flat bool) (int, error)
	}

	// Options control one run.
	Options struct {
		WorkDir           string
		DeleteOriginal    bool
		PreserveStructure bool
		ExtractFlat       bool
		// MaxRounds <= 0 selects DefaultMaxRounds.
		MaxRounds int
		// SkipPaths are files the run itself writes inside WorkDir.
		SkipPaths []string
	}

	// Controller owns the Stats of one run. It is not safe for concurrent use.
	Controller struct {
		fs         afero.Fs
		dispatcher Dispatcher
		clock      clock.Clock
		logger     *slog.Logger
		opts       Options
		skip       map[string]struct{}

		state State
		stats Stats
	}
)

// String returns a lowercase state label.
func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateExtractingRound:
		return "extracting"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// NewController prepares a run over opts.WorkDir.
func NewController(fs afero.Fs, dispatcher Dispatcher, opts Options, c clock.Clock, logger *slog.Logger) (*Controller, error) {
	if opts.WorkDir == "" {
		return nil, errors.New("work directory is required")
	}
	abs, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", opts.WorkDir, err)
	}
	opts.WorkDir = abs
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		if p == "" {
			continue
		}
		if absPath, err := filepath.Abs(p); err == nil {
			skip[filepath.Clean(absPath)] = struct{}{}
		}
	}

	return &Controller{
		fs:         fs,
		dispatcher: dispatcher,
		clock:      clock.OrReal(c),
		logger:     logger,
		opts:       opts,
		skip:       skip,
	}, nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Stats returns a copy of the counters so far.
func (c *Controller) Stats() Stats {
	return c.stats
}

// Survey scans the tree once for reporting. It sets Found and TotalSize
// and extracts nothing.
func (c *Controller) Survey() ([]ArchiveDescriptor, error) {
	found, err := c.scan()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, a := range found {
		total += a.Size
		c.logger.Info("found archive", "path", c.rel(a.Path), "size", humanize.IBytes(uint64(a.Size)))
	}
	c.stats.Found = len(found)
	c.stats.TotalSize = total

	c.logger.Info("survey complete", "archives", len(found), "total_size", humanize.IBytes(uint64(total)))
	if len(found) == 0 {
		suffixes := make([]string, 0, len(archive.Extensions))
		for _, ext := range archive.Extensions {
			suffixes = append(suffixes, ext.Suffix)
		}
		c.logger.Warn("no supported archives found", "formats", strings.Join(suffixes, ", "))
	} else {
		c.logger.Info("nested archives are discovered as they are extracted, so more may be processed")
	}
	return found, nil
}

// Run executes rounds until a stop condition holds. On cancellation it
// returns the context error together with the statistics gathered so far.
func (c *Controller) Run(ctx context.Context) (stats Stats, err error) {
	start := c.clock.Now()
	defer func() {
		c.state = StateDone
		c.stats.Elapsed = c.clock.Since(start)
		stats.Elapsed = c.stats.Elapsed
	}()

	for round := 1; ; round++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.interrupted(ctxErr)
		}

		c.state = StateScanning
		archives, scanErr := c.scan()
		if scanErr != nil {
			return c.stats, fmt.Errorf("scanning %s: %w", c.opts.WorkDir, scanErr)
		}
		if len(archives) == 0 {
			c.logger.Info("no more archives, done", "round", round)
			c.stats.StopReason = StopNoArchives
			return c.stats, nil
		}

		c.state = StateExtractingRound
		c.stats.Rounds = round
		c.logger.Info("round started", "round", round, "found", len(archives))

		result := RoundResult{Round: round, ArchivesSeen: len(archives)}
		for _, a := range archives {
			ok, procErr := c.process(ctx, round, a)
			if procErr != nil {
				c.stats.RoundResults = append(c.stats.RoundResults, result)
				return c.interrupted(procErr)
			}
			if ok {
				result.SuccessCount++
			} else {
				result.ErrorCount++
			}
		}
		c.stats.RoundResults = append(c.stats.RoundResults, result)
		c.logger.Info("round finished", "round", round, "success", result.SuccessCount, "error", result.ErrorCount)

		if result.SuccessCount == 0 {
			c.logger.Warn("no archive extracted this round, stopping", "round", round)
			c.stats.StopReason = StopStalled
			return c.stats, nil
		}
		if round >= c.opts.MaxRounds {
			c.logger.Warn("round limit reached, stopping", "max_rounds", c.opts.MaxRounds)
			c.stats.StopReason = StopRoundLimit
			return c.stats, nil
		}
	}
}

func (c *Controller) interrupted(err error) (Stats, error) {
	c.logger.Warn("interrupted", "processed", c.stats.Processed)
	c.stats.StopReason = StopInterrupted
	return c.stats, err
}

// destination is the directory an archive extracts into. It is reused when
// it already exists so repeated names merge.
func (c *Controller) destination(a ArchiveDescriptor) string {
	stem := archive.Stem(a.Path)
	if c.opts.PreserveStructure {
		return filepath.Join(filepath.Dir(a.Path), stem)
	}
	return filepath.Join(c.opts.WorkDir, stem)
}

// process extracts one archive and updates the statistics. The returned
// error is only ever a context error; extraction failures are counted.
func (c *Controller) process(ctx context.Context, round int, a ArchiveDescriptor) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dest := c.destination(a)
	c.logger.Info("processing archive",
		"n", c.stats.Processed+1,
		"archive", c.rel(a.Path),
		"size", humanize.IBytes(uint64(a.Size)),
		"dest", c.rel(dest))

	n, err := c.dispatcher.Extract(ctx, a.Format, a.Path, dest, c.opts.ExtractFlat)
	if err != nil && ctx.Err() != nil {
		return false, ctx.Err()
	}

	c.stats.Processed++
	if err != nil {
		kind := archive.KindOf(err)
		c.stats.Error++
		c.stats.Failures = append(c.stats.Failures, ArchiveFailure{
			Round:  round,
			Path:   a.Path,
			Kind:   kind,
			Reason: err.Error(),
		})
		c.logger.Error("extraction failed", "archive", c.rel(a.Path), "reason", kind, "error", err)
		return false, nil
	}

	c.stats.Success++
	c.stats.ExtractedFiles += n
	c.logger.Info("extraction succeeded", "archive", c.rel(a.Path), "files", n)

	if c.opts.DeleteOriginal {
		c.deleteOriginal(a)
	} else {
		c.logger.Info("keeping original archive", "archive", c.rel(a.Path))
	}
	return true, nil
}

// deleteOriginal removes a successfully extracted archive. Failures are
// logged and never change the extraction outcome.
func (c *Controller) deleteOriginal(a ArchiveDescriptor) {
	if _, err := c.fs.Stat(a.Path); errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("original archive no longer exists, nothing to delete", "archive", c.rel(a.Path))
		return
	}
	if err := c.fs.Remove(a.Path); err != nil {
		c.logger.Error("deleting original archive failed", "archive", c.rel(a.Path), "error", err)
		return
	}
	c.stats.FreedSize += a.Size
	c.logger.Info("deleted original archive", "archive", c.rel(a.Path))
}

// rel renders path relative to the work directory for log lines.
func (c *Controller) rel(path string) string {
	if r, err := filepath.Rel(c.opts.WorkDir, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}
