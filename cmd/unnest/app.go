// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
	"github.com/unnest/unnest/internal/config"
	"github.com/unnest/unnest/internal/issue"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives it instead of reaching for globals.
	App struct {
		Config ConfigProvider
		fs     afero.Fs
		clock  clock.Clock
		stdout io.Writer
		stderr io.Writer

		// Set once configuration is known; read by the error handler.
		verbose      bool
		glamourStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Fs     afero.Fs
		Clock  clock.Clock
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}

	return &App{
		Config:       deps.Config,
		fs:           deps.Fs,
		clock:        clock.OrReal(deps.Clock),
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
		glamourStyle: string(config.ColorSchemeAuto),
	}
}

// handleError prints command errors. Actionable errors get their
// suggestions and, when linked, the rendered catalog guidance.
func (a *App) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(a.verbose))
	if i, ok := issue.IssueOf(err); ok {
		rendered, renderErr := i.Render(a.glamourStyle)
		if renderErr != nil {
			rendered = i.Title() + "\n"
		}
		fmt.Fprint(w, rendered)
	}
}
