// SPDX-License-Identifier: MPL-2.0

// Package report renders the statistics of a finished run as a TOML document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/engine"
)

type (
	// Report is the TOML document written by --report.
	Report struct {
		Directory string    `toml:"directory"`
		StartedAt time.Time `toml:"started_at"`
		Elapsed   string    `toml:"elapsed"`
		Backup    string    `toml:"backup,omitempty"`
		Settings  Settings  `toml:"settings"`
		Summary   Summary   `toml:"summary"`
		Rounds    []Round   `toml:"rounds"`
		Failures  []Failure `toml:"failures,omitempty"`
	}

	// Settings are the options the run used.
	Settings struct {
		DeleteOriginal    bool     `toml:"delete_original"`
		PreserveStructure bool     `toml:"preserve_structure"`
		ExtractFlat       bool     `toml:"extract_flat"`
		MaxRounds         int      `toml:"max_rounds"`
		Encodings         []string `toml:"encodings"`
	}

	// Summary mirrors engine.Stats counters.
	Summary struct {
		Found          int    `toml:"found"`
		TotalSize      int64  `toml:"total_size"`
		Processed      int    `toml:"processed"`
		Success        int    `toml:"success"`
		Error          int    `toml:"error"`
		ExtractedFiles int    `toml:"extracted_files"`
		FreedSize      int64  `toml:"freed_size"`
		Rounds         int    `toml:"rounds"`
		StopReason     string `toml:"stop_reason"`
	}

	// Round is one entry of the rounds array.
	Round struct {
		Round   int `toml:"round"`
		Found   int `toml:"found"`
		Success int `toml:"success"`
		Error   int `toml:"error"`
	}

	// Failure is one archive that could not be extracted.
	Failure struct {
		Round  int    `toml:"round"`
		Path   string `toml:"path"`
		Kind   string `toml:"kind"`
		Reason string `toml:"reason"`
	}
)

// New builds a report from the final statistics.
func New(dir string, startedAt time.Time, backup string, settings Settings, stats engine.Stats) Report {
	r := Report{
		Directory: dir,
		StartedAt: startedAt.Truncate(time.Second),
		Elapsed:   stats.Elapsed.Round(time.Millisecond).String(),
		Backup:    backup,
		Settings:  settings,
		Summary: Summary{
			Found:          stats.Found,
			TotalSize:      stats.TotalSize,
			Processed:      stats.Processed,
			Success:        stats.Success,
			Error:          stats.Error,
			ExtractedFiles: stats.ExtractedFiles,
			FreedSize:      stats.FreedSize,
			Rounds:         stats.Rounds,
			StopReason:     string(stats.StopReason),
		},
		Rounds: make([]Round, 0, len(stats.RoundResults)),
	}
	for _, rr := range stats.RoundResults {
		r.Rounds = append(r.Rounds, Round{
			Round:   rr.Round,
			Found:   rr.ArchivesSeen,
			Success: rr.SuccessCount,
			Error:   rr.ErrorCount,
		})
	}
	for _, f := range stats.Failures {
		r.Failures = append(r.Failures, Failure{
			Round:  f.Round,
			Path:   f.Path,
			Kind:   f.Kind.String(),
			Reason: f.Reason,
		})
	}
	return r
}

// Write encodes r to path, creating parent directories.
func Write(fs afero.Fs, path string, r Report) (err error) {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	f, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
