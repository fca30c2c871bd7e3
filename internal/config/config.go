// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/unnest/unnest/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "unnest"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. UNNEST_MAX_ROUNDS.
	EnvPrefix = "UNNEST"

	// maxConfigFileSize bounds config.cue before it reaches the CUE compiler.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns <user config dir>/unnest: $XDG_CONFIG_HOME or ~/.config
// on Linux, ~/Library/Application Support on macOS and %AppData% on Windows.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// FilePath reports which config file a load with opts reads. found is false
// when no file exists and defaults apply; path is then the location that
// `config init` would create.
func FilePath(opts LoadOptions) (path string, found bool, err error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}
	cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(cuePath) {
		return cuePath, true, nil
	}

	if opts.BaseDir != "" {
		localCuePath := filepath.Join(opts.BaseDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(localCuePath) {
			return localCuePath, true, nil
		}
	}
	return cuePath, false, nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. Precedence, lowest first: defaults, config file,
// UNNEST_* environment.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("create_backup", defaults.CreateBackup)
	v.SetDefault("delete_original", defaults.DeleteOriginal)
	v.SetDefault("preserve_structure", defaults.PreserveStructure)
	v.SetDefault("extract_flat", defaults.ExtractFlat)
	v.SetDefault("max_rounds", defaults.MaxRounds)
	v.SetDefault("encodings", defaults.Encodings)
	v.SetDefault("report_path", defaults.ReportPath)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, found, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}

	resolvedPath := ""
	switch {
	case found:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", loadFailed(path, err,
				"Check that the file contains valid CUE syntax",
				"Verify the configuration values match the expected schema",
				"Run 'unnest config dump' to see a valid configuration")
		}
		resolvedPath = path
	case opts.ConfigFilePath != "":
		return nil, "", loadFailed(opts.ConfigFilePath,
			fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
			"Verify the file path is correct",
			"Check that the file exists and is readable")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithSuggestion("Run 'unnest config show' to see the effective values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func loadFailed(path string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestions(suggestions...).
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Fields are optional so validation runs
// with Concrete(false).
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file at path unless one
// already exists. created reports whether a file was written.
func CreateDefaultConfig(path string) (created bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// unnest configuration file\n")
	sb.WriteString("// Environment variables (UNNEST_MAX_ROUNDS, UNNEST_LOG_LEVEL, ...) and flags override it.\n\n")

	fmt.Fprintf(&sb, "create_backup:      %v\n", cfg.CreateBackup)
	fmt.Fprintf(&sb, "delete_original:    %v\n", cfg.DeleteOriginal)
	fmt.Fprintf(&sb, "preserve_structure: %v\n", cfg.PreserveStructure)
	fmt.Fprintf(&sb, "extract_flat:       %v\n", cfg.ExtractFlat)
	fmt.Fprintf(&sb, "max_rounds:         %d\n", cfg.MaxRounds)

	quoted := make([]string, 0, len(cfg.Encodings))
	for _, e := range cfg.Encodings {
		quoted = append(quoted, fmt.Sprintf("%q", e))
	}
	fmt.Fprintf(&sb, "encodings: [%s]\n", strings.Join(quoted, ", "))

	if cfg.ReportPath != "" {
		fmt.Fprintf(&sb, "report_path: %q\n", cfg.ReportPath)
	}

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tfile:  %v\n", cfg.Log.File)
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme.GlamourStyle())
	sb.WriteString("}\n")

	return sb.String()
}
