// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/unnest/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/unnest/config.cue on macOS, %APPDATA%\unnest\config.cue
// on Windows), falling back to ./config.cue. Values are validated against an embedded CUE
// schema (config_schema.cue), then UNNEST_* environment variables override them. Command
// line flags are applied on top by the cmd layer.
package config
