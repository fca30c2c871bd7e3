// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/unnest/unnest/internal/archive"
	"github.com/unnest/unnest/internal/config"
	"github.com/unnest/unnest/internal/engine"
	"github.com/unnest/unnest/internal/filename"
	"github.com/unnest/unnest/internal/issue"
	"github.com/unnest/unnest/internal/logging"
	"github.com/unnest/unnest/internal/report"
)

// loadConfig loads the configuration and applies explicitly set flags on top.
func (a *App) loadConfig(cmd *cobra.Command, f *runFlags) (*config.Config, error) {
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: f.configFile,
		BaseDir:        ".",
	})
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("verbose") {
		cfg.UI.Verbose = f.verbose
	}
	if changed("no-backup") {
		cfg.CreateBackup = !f.noBackup
	}
	if changed("keep-original") {
		cfg.DeleteOriginal = !f.keepOriginal
	}
	if changed("flat-structure") {
		cfg.PreserveStructure = !f.flatStructure
	}
	if changed("extract-flat") {
		cfg.ExtractFlat = f.extractFlat
	}
	if changed("no-log-file") {
		cfg.Log.File = !f.noLogFile
	}
	if changed("max-rounds") {
		cfg.MaxRounds = f.maxRounds
	}
	if changed("encodings") {
		cfg.Encodings = f.encodings
	}
	if changed("report") {
		cfg.ReportPath = f.report
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate options").
			WithSuggestion("Run 'unnest --help' to see accepted values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	a.verbose = cfg.UI.Verbose
	a.glamourStyle = cfg.UI.ColorScheme.GlamourStyle()
	return cfg, nil
}

// validateDirectory resolves dir and checks that it is an existing directory.
func validateDirectory(fs afero.Fs, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err == nil {
		err = requireDir(fs, abs)
	}
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("open directory").
			WithResource(dir).
			WithSuggestion("Pass an existing directory that contains archives").
			WithIssue(issue.DirectoryInvalidId).
			Wrap(err).
			BuildError()
	}
	return abs, nil
}

func requireDir(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// runExtract is the root command: back up, survey, run the extraction
// loop, then summarize.
func runExtract(cmd *cobra.Command, app *App, f *runFlags, dirArg string) (err error) {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(cmd, f)
	if err != nil {
		return err
	}

	dir, err := validateDirectory(app.fs, dirArg)
	if err != nil {
		return &ExitError{Code: exitDirectoryInvalid, Err: err}
	}

	logOpts := logging.Options{
		Console: app.stderr,
		Level:   cfg.Log.Level.String(),
		Verbose: cfg.UI.Verbose,
		Fs:      app.fs,
		Clock:   app.clock,
	}
	if cfg.Log.File {
		logOpts.FileDir = dir
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("create log file").
			WithResource(dir).
			WithIssue(issue.LogFileFailedId).
			Wrap(err).
			BuildError()
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	logger.Info("unnest starting",
		"directory", dir,
		"backup", cfg.CreateBackup,
		"delete_original", cfg.DeleteOriginal,
		"preserve_structure", cfg.PreserveStructure,
		"extract_flat", cfg.ExtractFlat,
		"max_rounds", cfg.MaxRounds,
		"encodings", strings.Join(cfg.Encodings, ","))
	if logger.Path() != "" {
		logger.Info("writing log file", "path", logger.Path())
	}

	backupDir := ""
	if cfg.CreateBackup {
		logger.Info("creating backup", "source", dir)
		backupDir, err = engine.Backup(app.fs, dir, app.clock)
		if err != nil {
			logger.Error("backup failed, nothing was extracted", "error", err)
			return &ExitError{Code: exitBackupFailed, Err: issue.NewErrorContext().
				WithOperation("back up directory").
				WithResource(dir).
				WithSuggestions("Free some disk space", "Pass --no-backup if you already have a copy").
				WithIssue(issue.BackupFailedId).
				Wrap(err).
				BuildError()}
		}
		logger.Info("backup created", "path", backupDir)
	} else {
		logger.Warn("backup disabled")
	}

	recoverer, err := filename.NewRecoverer(cfg.Encodings,
		filename.WithClock(app.clock),
		filename.WithLogger(logger.Logger))
	if err != nil {
		return err
	}
	registry, err := archive.NewRegistry(archive.Options{
		Fs:        app.fs,
		Recoverer: recoverer,
		Logger:    logger.Logger,
		Clock:     app.clock,
	})
	if err != nil {
		return err
	}

	reportPath := ""
	if cfg.ReportPath != "" {
		if reportPath, err = filepath.Abs(cfg.ReportPath); err != nil {
			return fmt.Errorf("resolving report path: %w", err)
		}
	}

	controller, err := engine.NewController(app.fs, registry, engine.Options{
		WorkDir:           dir,
		DeleteOriginal:    cfg.DeleteOriginal,
		PreserveStructure: cfg.PreserveStructure,
		ExtractFlat:       cfg.ExtractFlat,
		MaxRounds:         cfg.MaxRounds,
		SkipPaths:         []string{logger.Path(), reportPath},
	}, app.clock, logger.Logger)
	if err != nil {
		return err
	}

	startedAt := app.clock.Now()
	if _, err := controller.Survey(); err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	stats := controller.Stats()
	var runErr error
	if stats.Found > 0 {
		stats, runErr = controller.Run(ctx)
	} else {
		stats.StopReason = engine.StopNoArchives
	}

	logger.Info("run finished",
		"processed", stats.Processed,
		"success", stats.Success,
		"error", stats.Error,
		"extracted_files", stats.ExtractedFiles,
		"freed", humanize.IBytes(uint64(stats.FreedSize)),
		"elapsed", stats.Elapsed.Round(time.Millisecond).String(),
		"rounds", stats.Rounds,
		"stop_reason", stats.StopReason)

	var reportErr error
	if reportPath != "" {
		r := report.New(dir, startedAt, backupDir, report.Settings{
			DeleteOriginal:    cfg.DeleteOriginal,
			PreserveStructure: cfg.PreserveStructure,
			ExtractFlat:       cfg.ExtractFlat,
			MaxRounds:         cfg.MaxRounds,
			Encodings:         cfg.Encodings,
		}, stats)
		if reportErr = report.Write(app.fs, reportPath, r); reportErr != nil {
			logger.Error("writing report failed", "path", reportPath, "error", reportErr)
		} else {
			logger.Info("report written", "path", reportPath)
		}
	}

	renderSummary(app.stdout, summary{
		dir:            dir,
		backupDir:      backupDir,
		deleteOriginal: cfg.DeleteOriginal,
		stats:          stats,
	})

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return &ExitError{Code: exitInterrupted, Err: issue.NewErrorContext().
				WithOperation("finish extraction").
				WithResource(dir).
				WithIssue(issue.InterruptedId).
				Wrap(runErr).
				BuildError()}
		}
		return runErr
	}
	return reportErr
}
