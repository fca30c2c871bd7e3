// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unnest/unnest/internal/config"
)

// newConfigCommand creates the `unnest config` command tree.
func newConfigCommand(app *App, flags *runFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage unnest configuration",
		Long: `Manage unnest configuration.

Configuration is stored in:
  - Linux: ~/.config/unnest/config.cue
  - macOS: ~/Library/Application Support/unnest/config.cue
  - Windows: %APPDATA%\unnest\config.cue

UNNEST_* environment variables (UNNEST_MAX_ROUNDS, UNNEST_LOG_LEVEL, ...)
override the file, and command line flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	loadOpts := func() config.LoadOptions {
		return config.LoadOptions{ConfigFilePath: flags.configFile, BaseDir: "."}
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), loadOpts())
			if err != nil {
				return err
			}
			path, found, err := config.FilePath(loadOpts())
			if err != nil {
				return err
			}
			showConfig(app, cfg, path, found)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, found, err := config.FilePath(loadOpts())
			if err != nil {
				return err
			}
			state := SuccessStyle.Render("(exists)")
			if !found {
				state = SubtitleStyle.Render("(not created, using defaults)")
			}
			fmt.Fprintf(app.stdout, "%s %s\n", path, state)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configFile})
			if err != nil {
				return err
			}
			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), loadOpts())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config, path string, found bool) {
	w := app.stdout
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if found {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	kv := func(indent, key, value string) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(value))
	}
	kv("", "create_backup", strconv.FormatBool(cfg.CreateBackup))
	kv("", "delete_original", strconv.FormatBool(cfg.DeleteOriginal))
	kv("", "preserve_structure", strconv.FormatBool(cfg.PreserveStructure))
	kv("", "extract_flat", strconv.FormatBool(cfg.ExtractFlat))
	kv("", "max_rounds", strconv.Itoa(cfg.MaxRounds))
	kv("", "encodings", strings.Join(cfg.Encodings, ", "))
	if cfg.ReportPath != "" {
		kv("", "report_path", cfg.ReportPath)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("log"))
	kv("  ", "file", strconv.FormatBool(cfg.Log.File))
	kv("  ", "level", cfg.Log.Level.String())

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	kv("  ", "verbose", strconv.FormatBool(cfg.UI.Verbose))
	kv("  ", "color_scheme", string(cfg.UI.ColorScheme))
}
