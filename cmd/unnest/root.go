// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// runFlags holds every flag value of one invocation.
type runFlags struct {
	verbose    bool
	configFile string

	noBackup      bool
	keepOriginal  bool
	flatStructure bool
	extractFlat   bool
	noLogFile     bool
	maxRounds     int
	encodings     []string
	report        string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "unnest [flags] <directory>",
		Short: "Recursively extract nested archives",
		Long: TitleStyle.Render("unnest") + SubtitleStyle.Render(" - recursively extract nested archives") + `

unnest scans a directory for ZIP, RAR, 7z and tar archives, extracts them and
keeps scanning until no archive is left, so archives inside archives are
unpacked too. Garbled member names from legacy encodings are recovered.

By default the directory is backed up first and each archive is deleted once
it was extracted successfully.

` + SubtitleStyle.Render("Examples:") + `
  unnest ~/Downloads/batch                 Extract everything, with backup
  unnest --no-backup --keep-original dir   Extract without touching originals
  unnest --extract-flat dir                Drop member directories
  unnest formats                           List supported archive formats
  unnest config show                       Show the effective configuration`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, app, flags, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/unnest/config.cue)")

	f := root.Flags()
	f.BoolVar(&flags.noBackup, "no-backup", false, "do not back up the directory before extracting")
	f.BoolVar(&flags.keepOriginal, "keep-original", false, "keep archives after successful extraction")
	f.BoolVar(&flags.flatStructure, "flat-structure", false, "extract every archive into the top-level directory")
	f.BoolVar(&flags.extractFlat, "extract-flat", false, "drop member directories and keep only file names")
	f.BoolVar(&flags.noLogFile, "no-log-file", false, "do not write unnest_<timestamp>.log")
	f.IntVar(&flags.maxRounds, "max-rounds", 0, "maximum number of scan rounds (default from config, 50)")
	f.StringSliceVar(&flags.encodings, "encodings", nil, "ordered encodings tried on undecoded member names")
	f.StringVar(&flags.report, "report", "", "write a TOML run report to this file")

	root.AddCommand(newConfigCommand(app, flags))
	root.AddCommand(newFormatsCommand(app))

	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	return Execute(context.Background(), Dependencies{}, os.Args[1:])
}

// Execute runs the command tree with args and maps the outcome to an exit code.
func Execute(ctx context.Context, deps Dependencies, args []string) int {
	app := NewApp(deps)
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	if err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return exitFailure
	}
	return 0
}
