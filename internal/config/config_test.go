// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/unnest/unnest/internal/issue"
	"github.com/unnest/unnest/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, content)
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if !cfg.CreateBackup || !cfg.DeleteOriginal || !cfg.PreserveStructure {
		t.Errorf("backup, delete and preserve should default to true: %+v", cfg)
	}
	if cfg.ExtractFlat {
		t.Error("extract_flat should default to false")
	}
	if cfg.MaxRounds != 50 {
		t.Errorf("MaxRounds = %d, want 50", cfg.MaxRounds)
	}
	if len(cfg.Encodings) == 0 || cfg.Encodings[0] != "utf-8" {
		t.Errorf("Encodings = %v, want utf-8 first", cfg.Encodings)
	}
	if !cfg.Log.File || cfg.Log.Level != LogLevelInfo {
		t.Errorf("Log = %+v, want file on at info", cfg.Log)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig() is invalid: %v", errs)
	}

	cfg.Encodings[0] = "changed"
	if DefaultConfig().Encodings[0] != "utf-8" {
		t.Error("DefaultConfig() shares its encodings slice")
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero rounds", func(c *Config) { c.MaxRounds = 0 }, ErrInvalidMaxRounds},
		{"too many rounds", func(c *Config) { c.MaxRounds = MaxRoundsLimit + 1 }, ErrInvalidMaxRounds},
		{"unknown encoding", func(c *Config) { c.Encodings = []string{"utf-8", "klingon"} }, ErrInvalidEncoding},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidLogLevel},
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "neon" }, ErrInvalidColorScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig, got %v", errs[0])
			}
			var cfgErr *InvalidConfigError
			if !errors.As(errs[0], &cfgErr) {
				t.Fatalf("error should be *InvalidConfigError, got %T", errs[0])
			}
			if len(cfgErr.FieldErrors) != 1 || !errors.Is(cfgErr.FieldErrors[0], tt.wantErr) {
				t.Errorf("FieldErrors = %v, want one %v", cfgErr.FieldErrors, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-only")
	}
	Reset()

	testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	SetConfigDirOverride("/elsewhere")
	t.Cleanup(Reset)
	if dir, _ := ConfigDir(); dir != "/elsewhere" {
		t.Errorf("ConfigDir() with override = %s, want /elsewhere", dir)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.MaxRounds != 50 || !cfg.CreateBackup {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_CUEFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, `
create_backup: false
max_rounds:    7
encodings: ["utf-8", "big5"]
log: level: "debug"
ui: color_scheme: "dark"
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.CreateBackup {
		t.Error("create_backup from file ignored")
	}
	if !cfg.DeleteOriginal {
		t.Error("delete_original should keep its default")
	}
	if cfg.MaxRounds != 7 {
		t.Errorf("MaxRounds = %d, want 7", cfg.MaxRounds)
	}
	if !slices.Equal(cfg.Encodings, []string{"utf-8", "big5"}) {
		t.Errorf("Encodings = %v", cfg.Encodings)
	}
	if cfg.Log.Level != LogLevelDebug || !cfg.Log.File {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %q", cfg.UI.ColorScheme)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"unknown field", "rounds: 3\n", "rounds"},
		{"out of range", "max_rounds: 0\n", "max_rounds"},
		{"wrong type", "create_backup: \"yes\"\n", "create_backup"},
		{"bad level", "log: level: \"loud\"\n", "log.level"},
		{"syntax", "max_rounds: [\n", ConfigFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
			if got, ok := issue.IssueOf(err); !ok || got.Id() != issue.ConfigLoadFailedId {
				t.Errorf("error should link ConfigLoadFailedId, got %v", err)
			}
		})
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.cue")
	testutil.MustWriteFile(t, custom, "extract_flat: true\n")

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: custom,
		ConfigDirPath:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != custom || !cfg.ExtractFlat {
		t.Errorf("path = %q, ExtractFlat = %v", path, cfg.ExtractFlat)
	}

	_, _, err = loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("missing explicit file should fail, got %v", err)
	}
}

func TestLoad_BaseDirFallback(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	want := writeConfig(t, base, "max_rounds: 3\n")

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
		BaseDir:       base,
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if path != want || cfg.MaxRounds != 3 {
		t.Errorf("path = %q, MaxRounds = %d", path, cfg.MaxRounds)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "max_rounds: 7\n")

	testutil.MustSetenv(t, "UNNEST_MAX_ROUNDS", "9")
	testutil.MustSetenv(t, "UNNEST_LOG_LEVEL", "warn")
	testutil.MustSetenv(t, "UNNEST_ENCODINGS", "utf-8,gbk")
	testutil.MustSetenv(t, "UNNEST_CREATE_BACKUP", "false")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRounds != 9 {
		t.Errorf("MaxRounds = %d, want 9", cfg.MaxRounds)
	}
	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if !slices.Equal(cfg.Encodings, []string{"utf-8", "gbk"}) {
		t.Errorf("Encodings = %v", cfg.Encodings)
	}
	if cfg.CreateBackup {
		t.Error("UNNEST_CREATE_BACKUP=false ignored")
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	testutil.MustSetenv(t, "UNNEST_ENCODINGS", "utf-8,nonsense")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("error should wrap ErrInvalidEncoding, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxRounds = 12
	cfg.ReportPath = "/tmp/report.toml"
	cfg.Encodings = []string{"utf-8", "shift_jis"}

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(cfg))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if got.MaxRounds != 12 || got.ReportPath != "/tmp/report.toml" {
		t.Errorf("round trip lost values: %+v", got)
	}
	if !slices.Equal(got.Encodings, cfg.Encodings) {
		t.Errorf("Encodings = %v, want %v", got.Encodings, cfg.Encodings)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	created, err := CreateDefaultConfig(path)
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %v, %v", created, err)
	}

	if err := os.WriteFile(path, []byte("max_rounds: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = CreateDefaultConfig(path)
	if err != nil || created {
		t.Fatalf("second CreateDefaultConfig() = %v, %v; want false, nil", created, err)
	}
	if got := testutil.MustReadFile(t, path); got != "max_rounds: 2\n" {
		t.Errorf("existing file overwritten: %q", got)
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, found, err := FilePath(LoadOptions{ConfigDirPath: dir})
	if err != nil || found {
		t.Fatalf("FilePath() = %q, %v, %v", path, found, err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"max_rounds"}, "max_rounds"},
		{[]string{"encodings", "2"}, "encodings[2]"},
		{[]string{"log", "level"}, "log.level"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := checkFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	if err := checkFileSize(make([]byte, 11), 10, "a.cue"); err == nil {
		t.Error("over limit should fail")
	}
}
