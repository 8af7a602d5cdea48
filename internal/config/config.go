// Package config provides unified configuration loading for spineml2genn.
// It supports loading from YAML files and environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvGeNNPath         = "GENN_PATH"
	EnvLogLevel         = "SPINEML2GENN_LOG_LEVEL"
	EnvLogFile          = "SPINEML2GENN_LOG_FILE"
	EnvGenerationPolicy = "SPINEML2GENN_GENERATION_POLICY"
	EnvHistory          = "SPINEML2GENN_HISTORY"
)

// Generation policies.
const (
	// PolicyAlways runs the generator on every invocation, whatever the change detector decides.
	PolicyAlways = "always"
	// PolicyOnChange skips the generator when staged inputs match the previous snapshot.
	PolicyOnChange = "on-change"
)

// ErrGeNNPathNotSet is returned by RequireGeNNPath when no toolchain root is configured.
var ErrGeNNPathNotSet = errors.New("GENN_PATH not set")

//go:embed schema.json
var schemaJSON string

// Config contains all spineml2genn configuration settings.
type Config struct {
	// GeNN locates the external toolchain.
	GeNN GeNNConfig `json:"genn" yaml:"genn"`

	// Staging controls which extra files are copied from the model directory.
	Staging StagingConfig `json:"staging" yaml:"staging"`

	// Generation controls when the code generator runs.
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// History controls the per-output-directory run ledger.
	History HistoryConfig `json:"history" yaml:"history"`

	// Watch configures run --watch.
	Watch WatchConfig `json:"watch" yaml:"watch"`
}

// GeNNConfig locates the GeNN installation.
type GeNNConfig struct {
	// Path is the GeNN installation root. GENN_PATH always wins over the file value.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// WindowsBuildScripts are candidate Visual C++ environment scripts, tried in order.
	// The last one found is used.
	WindowsBuildScripts []string `json:"windows_build_scripts,omitempty" yaml:"windows_build_scripts,omitempty"`
}

// StagingConfig configures the stager.
type StagingConfig struct {
	// AuxExtensions lists suffixes of binary data files copied along with the model.
	AuxExtensions []string `json:"aux_extensions" yaml:"aux_extensions"`
}

// GenerationConfig configures generator gating.
type GenerationConfig struct {
	// Policy is "always" (default) or "on-change".
	Policy string `json:"policy" yaml:"policy"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <out>/.spineml2genn/decisions.jsonl.
	Level string `json:"level" yaml:"level"`

	// File, when set, also writes JSON logs to a rotating file.
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// HistoryConfig configures the run ledger.
type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long the model directory must be quiet before a rerun.
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// DefaultWindowsBuildScripts are the Visual C++ Build Tools locations probed on Windows.
var DefaultWindowsBuildScripts = []string{
	`C:\Program Files (x86)\Microsoft Visual C++ Build Tools\vcvarsall.bat`,
	`C:\Program Files (x86)\Microsoft Visual C++ Build Tools\vcbuildtools.bat`,
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		GeNN: GeNNConfig{
			WindowsBuildScripts: append([]string(nil), DefaultWindowsBuildScripts...),
		},
		Staging: StagingConfig{
			AuxExtensions: []string{"bin"},
		},
		Generation: GenerationConfig{
			Policy: PolicyAlways,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// DefaultPath returns ~/.spineml2genn/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".spineml2genn", "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when path is empty,
// and applies environment variable overrides.
// Order: defaults -> config file -> environment variables.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		if statErr == nil || explicit {
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// The document is checked against the embedded JSON schema before decoding.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.GeNN.Path = expandEnvVars(config.GeNN.Path)
	config.Logging.File = expandEnvVars(config.Logging.File)

	return config, nil
}

func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if raw == nil {
		return nil
	}

	schema, err := jsonschema.CompileString("config.schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Generation.Policy {
	case PolicyAlways, PolicyOnChange:
	default:
		return fmt.Errorf("invalid generation policy: %s (valid: %s, %s)", c.Generation.Policy, PolicyAlways, PolicyOnChange)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	for _, ext := range c.Staging.AuxExtensions {
		if strings.TrimSpace(ext) == "" {
			return fmt.Errorf("staging.aux_extensions must not contain empty entries")
		}
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %v", c.Watch.Debounce)
	}

	return nil
}

// RequireGeNNPath returns the configured GeNN root or ErrGeNNPathNotSet.
func (c *Config) RequireGeNNPath() (string, error) {
	if c.GeNN.Path == "" {
		return "", ErrGeNNPathNotSet
	}
	return c.GeNN.Path, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv(EnvGeNNPath); v != "" {
		config.GeNN.Path = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv(EnvLogFile); v != "" {
		config.Logging.File = v
	}

	if v := os.Getenv(EnvGenerationPolicy); v != "" {
		config.Generation.Policy = v
	}

	if v := os.Getenv(EnvHistory); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.History.Enabled = b
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
