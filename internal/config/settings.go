// Package config loads modrun settings from defaults, an optional YAML
// file, and MODRUN_-prefixed environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/modrun/modrun/internal/core/domain"
)

// Environment variable names, documented here because operators set them
// directly in CI.
const (
	EnvStateDir       = "MODRUN_STATE_DIR"
	EnvShell          = "MODRUN_SHELL"
	EnvLockWait       = "MODRUN_LOCK_WAIT"
	EnvLockStaleAfter = "MODRUN_LOCK_STALE_AFTER"
	EnvTimeout        = "MODRUN_TIMEOUT"
	EnvNoColor        = "MODRUN_NO_COLOR"
	EnvLogLevel       = "MODRUN_LOG_LEVEL"
)

// Settings holds everything tunable about a modrun invocation.
type Settings struct {
	// StateDir is where checkpoint records and lock files live. It must be
	// absolute so invocations from different working directories agree on
	// where a checkpoint lives.
	StateDir string `mapstructure:"state_dir" validate:"required,abs_path"`

	// Shell is the binary used to interpret the command line.
	Shell string `mapstructure:"shell" validate:"required,command"`

	// LockWait bounds how long a contended invocation polls for the
	// advisory lock before proceeding without it.
	LockWait time.Duration `mapstructure:"lock_wait" validate:"min=0"`

	// LockStaleAfter is the age past which another run's lock is assumed
	// abandoned and broken. Zero disables stale breaking.
	LockStaleAfter time.Duration `mapstructure:"lock_stale_after" validate:"min=0"`

	// Timeout cancels the executed command after this duration. Zero means
	// wait forever, matching the original tool.
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`

	// NoColor disables ANSI colors on status lines.
	NoColor bool `mapstructure:"no_color"`

	// LogLevel controls slog diagnostics on stderr.
	LogLevel slog.Level `mapstructure:"log_level"`

	// Profiles are named command/watch pairs from the config file, invoked
	// with `modrun --profile <name>` instead of positional arguments.
	Profiles map[string]Profile `mapstructure:"profiles"`
}

// Profile pairs a command with the directory that gates it.
type Profile struct {
	Command domain.CommandLine `mapstructure:"command"`
	Watch   domain.WatchTarget `mapstructure:"watch"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		StateDir:       filepath.Join(os.TempDir(), "modrun"),
		Shell:          "sh",
		LockWait:       2 * time.Second,
		LockStaleAfter: 10 * time.Minute,
		Timeout:        0,
		NoColor:        false,
		LogLevel:       slog.LevelWarn,
	}
}

// Load builds Settings from defaults, then the YAML file at path (optional,
// empty means no file), then environment variables.
func Load(path string) (Settings, error) {
	defaults := Default()

	v := viper.New()
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("shell", defaults.Shell)
	v.SetDefault("lock_wait", defaults.LockWait.String())
	v.SetDefault("lock_stale_after", defaults.LockStaleAfter.String())
	v.SetDefault("timeout", "0s")
	v.SetDefault("no_color", defaults.NoColor)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("MODRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var settings Settings
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToLogLevelHookFunc(),
		domain.CommandLineDecodeHook(),
		domain.WatchTargetDecodeHook(),
	)
	if err := v.Unmarshal(&settings, viper.DecodeHook(hook)); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks structural invariants with the domain validator, plus the
// profile pairs the validator cannot see inside the map.
func (s Settings) Validate() error {
	if err := domain.NewValidator().Validate(s); err != nil {
		return domain.FormatValidationErrors(err)
	}
	for name, p := range s.Profiles {
		if p.Command.IsEmpty() {
			return fmt.Errorf("profile %q: command is required", name)
		}
		if p.Watch.IsEmpty() {
			return fmt.Errorf("profile %q: watch is required", name)
		}
	}
	return nil
}

// stringToLogLevelHookFunc converts config strings like "debug" or "warn"
// into slog levels.
func stringToLogLevelHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(slog.Level(0)) {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			return data, nil
		}

		var level slog.Level
		if err := level.UnmarshalText([]byte(str)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", str, err)
		}
		return level, nil
	}
}
