// Package config loads tro's layered configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Defaults.
const (
	DefaultHost         = "https://api.trello.com"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultEditor       = "vi"
)

// Environment variables read by LoadConfig.
const (
	EnvKey   = "TRO_KEY"
	EnvToken = "TRO_TOKEN"
	EnvHost  = "TRO_HOST"
)

// DotEnvFileName is read from the working directory when present.
const DotEnvFileName = ".env"

const filePerms = 0o600

// Error variables for config operations.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrNoGlobalPath       = errors.New("cannot determine config directory (set $HOME or $XDG_CONFIG_HOME)")
	ErrMissingCredentials = errors.New("missing Trello key or token (run `tro setup`)")
	ErrPollInterval       = errors.New("poll_interval must be a positive duration")
)

// Config holds all configuration options.
type Config struct {
	Key          string `json:"key,omitempty"`
	Token        string `json:"token,omitempty"`
	Host         string `json:"host,omitempty"`
	Editor       string `json:"editor,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string        `json:"-"`
	Interval     time.Duration `json:"-"`

	// Sources tracks where values came from (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which files and variables were applied.
type Sources struct {
	Global string   // global config path if loaded
	File   string   // --config path if given
	DotEnv string   // .env path if loaded
	Env    []string // environment variables that overrode a value
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         DefaultHost,
		PollInterval: DefaultPollInterval.String(),
		Interval:     DefaultPollInterval,
	}
}

// GlobalPath returns the path of the global config file.
// Uses $XDG_CONFIG_HOME/tro/config.json if set, otherwise ~/.config/tro/config.json.
// Returns empty string if home directory cannot be determined.
func GlobalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "tro", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tro", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/tro/config.json or ~/.config/tro/config.json)
// 3. Explicit config file via ConfigPath (if non-empty)
// 4. .env file in the working directory (TRO_* keys)
// 5. Environment variables (TRO_*).
//
// Credentials are not required here; see RequireCredentials.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	if globalPath := GlobalPath(input.Env); globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	if input.ConfigPath != "" {
		cfgFile := input.ConfigPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}

		fileCfg, _, err := loadConfigFile(cfgFile, true)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.File = cfgFile
		cfg = mergeConfig(cfg, fileCfg)
	}

	dotEnvPath := filepath.Join(workDir, DotEnvFileName)

	dotEnv, err := godotenv.Read(dotEnvPath)
	switch {
	case err == nil:
		cfg.Sources.DotEnv = dotEnvPath
		cfg = mergeConfig(cfg, fromEnv(dotEnv))
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, dotEnvPath, err)
	}

	envCfg := fromEnv(input.Env)
	for _, name := range []string{EnvKey, EnvToken, EnvHost} {
		if input.Env[name] != "" {
			cfg.Sources.Env = append(cfg.Sources.Env, name)
		}
	}

	cfg = mergeConfig(cfg, envCfg)

	interval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || interval <= 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrPollInterval, cfg.PollInterval)
	}

	cfg.Interval = interval
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// RequireCredentials returns ErrMissingCredentials unless key and token are set.
func (c Config) RequireCredentials() error {
	if c.Key == "" || c.Token == "" {
		return ErrMissingCredentials
	}

	return nil
}

// ResolveEditor returns the editor command.
// Priority: config.Editor -> $EDITOR -> vi.
func (c Config) ResolveEditor(env map[string]string) string {
	if c.Editor != "" {
		return c.Editor
	}

	if editor := env["EDITOR"]; editor != "" {
		return editor
	}

	return DefaultEditor
}

// SaveCredentials stores key and token in the global config file, keeping
// the other values already in it. The directory is created when missing and
// the file is replaced atomically, readable by the owner only. It returns the
// path written.
func SaveCredentials(env map[string]string, key, token string) (string, error) {
	path := GlobalPath(env)
	if path == "" {
		return "", ErrNoGlobalPath
	}

	existing, _, err := loadConfigFile(path, false)
	if err != nil {
		return "", err
	}

	existing.Key = key
	existing.Token = token

	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o700)
	if mkdirErr != nil {
		return "", fmt.Errorf("create config directory: %w", mkdirErr)
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	writeErr := atomic.WriteFile(path, strings.NewReader(string(data)+"\n"))
	if writeErr != nil {
		return "", fmt.Errorf("write config: %w", writeErr)
	}

	// atomic.WriteFile doesn't set permissions for new files
	chmodErr := os.Chmod(path, filePerms)
	if chmodErr != nil {
		return "", fmt.Errorf("set config permissions: %w", chmodErr)
	}

	return path, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files return zero config.
// Returns the config, whether file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func fromEnv(env map[string]string) Config {
	return Config{Key: env[EnvKey], Token: env[EnvToken], Host: env[EnvHost]}
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Key != "" {
		base.Key = overlay.Key
	}

	if overlay.Token != "" {
		base.Token = overlay.Token
	}

	if overlay.Host != "" {
		base.Host = overlay.Host
	}

	if overlay.Editor != "" {
		base.Editor = overlay.Editor
	}

	if overlay.PollInterval != "" {
		base.PollInterval = overlay.PollInterval
	}

	return base
}
