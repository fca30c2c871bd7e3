// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unnest/unnest/internal/engine"
	"github.com/unnest/unnest/internal/filename"
)

const (
	// LogLevelDebug logs every member and every skipped path.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"

	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark styles.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light styles.
	ColorSchemeLight ColorScheme = "light"

	// MaxRoundsLimit is the largest accepted max_rounds.
	MaxRoundsLimit = 1000
)

var (
	// ErrInvalidMaxRounds is the sentinel error wrapped by InvalidMaxRoundsError.
	ErrInvalidMaxRounds = errors.New("invalid max rounds")
	// ErrInvalidEncoding is the sentinel error wrapped by InvalidEncodingError.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidColorScheme is the sentinel error wrapped by InvalidColorSchemeError.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written to the console and log file.
	LogLevel string

	// ColorScheme selects the glamour style used for issue guidance.
	ColorScheme string

	// InvalidMaxRoundsError is returned when max_rounds is outside 1..MaxRoundsLimit.
	InvalidMaxRoundsError struct {
		Value int
	}

	// InvalidEncodingError is returned when an encodings entry names no known encoding.
	InvalidEncodingError struct {
		Value string
	}

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// CreateBackup copies the working directory before anything is extracted.
		CreateBackup bool `json:"create_backup" mapstructure:"create_backup"`
		// DeleteOriginal removes an archive once it extracted successfully.
		DeleteOriginal bool `json:"delete_original" mapstructure:"delete_original"`
		// PreserveStructure extracts next to the archive instead of the root.
		PreserveStructure bool `json:"preserve_structure" mapstructure:"preserve_structure"`
		// ExtractFlat drops member directories.
		ExtractFlat bool `json:"extract_flat" mapstructure:"extract_flat"`
		// MaxRounds caps the number of scan rounds.
		MaxRounds int `json:"max_rounds" mapstructure:"max_rounds"`
		// Encodings is the ordered list tried on undecoded member names.
		Encodings []string `json:"encodings" mapstructure:"encodings"`
		// ReportPath writes a TOML run report when set.
		ReportPath string `json:"report_path" mapstructure:"report_path"`
		Log        LogConfig `json:"log" mapstructure:"log"`
		UI         UIConfig  `json:"ui" mapstructure:"ui"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		// File writes unnest_<timestamp>.log in the working directory.
		File  bool     `json:"file" mapstructure:"file"`
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		CreateBackup:      true,
		DeleteOriginal:    true,
		PreserveStructure: true,
		ExtractFlat:       false,
		MaxRounds:         engine.DefaultMaxRounds,
		Encodings:         append([]string(nil), filename.DefaultEncodings...),
		Log: LogConfig{
			File:  true,
			Level: LogLevelInfo,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.MaxRounds < 1 || c.MaxRounds > MaxRoundsLimit {
		errs = append(errs, &InvalidMaxRoundsError{Value: c.MaxRounds})
	}
	for _, label := range c.Encodings {
		if _, err := filename.LookupEncoding(label); err != nil {
			errs = append(errs, &InvalidEncodingError{Value: label})
		}
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig and every field error to errors.Is/As.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidMaxRoundsError.
func (e *InvalidMaxRoundsError) Error() string {
	return fmt.Sprintf("invalid max_rounds %d (valid: 1..%d)", e.Value, MaxRoundsLimit)
}

// Unwrap returns ErrInvalidMaxRounds for errors.Is() compatibility.
func (e *InvalidMaxRoundsError) Unwrap() error { return ErrInvalidMaxRounds }

// Error implements the error interface for InvalidEncodingError.
func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("unknown encoding %q", e.Value)
}

// Unwrap returns ErrInvalidEncoding for errors.Is() compatibility.
func (e *InvalidEncodingError) Unwrap() error { return ErrInvalidEncoding }

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// GlamourStyle is the glamour style name for the scheme.
func (cs ColorScheme) GlamourStyle() string {
	if cs == "" {
		return string(ColorSchemeAuto)
	}
	return string(cs)
}
