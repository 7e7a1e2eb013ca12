// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// EnvPrefix prefixes every environment override, e.g. NODEKIT_HTTP_TIMEOUT.
const EnvPrefix = "NODEKIT"

// Config represents the complete nodekit configuration.
type Config struct {
	Log  LogConfig  `mapstructure:"log"`
	HTTP HTTPConfig `mapstructure:"http"`

	// Credentials maps a credential type (e.g. fetiasApi) to its fields.
	// Field values are secret references: env:NAME, ${NAME}, file:/path,
	// keychain:name or a literal.
	Credentials map[string]map[string]string `mapstructure:"-"`

	// Path is the file the configuration was read from, if any.
	Path string `mapstructure:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Format sets the output format (json, text).
	Format string `mapstructure:"format"`
}

// HTTPConfig configures the shared HTTP transport.
type HTTPConfig struct {
	// Timeout bounds each request. Default: 30s
	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond throttles outgoing requests. Zero disables it.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Burst is the limiter burst size. Default: 1
	Burst int `mapstructure:"burst"`

	// MaxPages caps getAll pagination. Zero means no cap.
	MaxPages int `mapstructure:"max_pages"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Burst:   1,
		},
		Credentials: map[string]map[string]string{},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.requests_per_second", d.HTTP.RequestsPerSecond)
	v.SetDefault("http.burst", d.HTTP.Burst)
	v.SetDefault("http.max_pages", d.HTTP.MaxPages)
}

// Load reads configuration from configPath, or from the default location
// when configPath is empty. A missing default file is not an error; a
// missing explicit file is. Environment variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if !explicit {
		path, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		configPath = path
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	found := true
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		found = false
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Credentials = map[string]map[string]string{}
	if found {
		cfg.Path = configPath
		if cfg.Credentials, err = loadCredentials(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCredentials reads the credentials section directly; viper folds map
// keys to lower case and credential types are case-sensitive.
func loadCredentials(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var doc struct {
		Credentials map[string]map[string]string `yaml:"credentials"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode credentials in %s: %w", path, err)
	}
	if doc.Credentials == nil {
		doc.Credentials = map[string]map[string]string{}
	}
	return doc.Credentials, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, text", c.Log.Format))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, "http.timeout must be positive")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		errs = append(errs, "http.requests_per_second must not be negative")
	}
	if c.HTTP.Burst < 0 {
		errs = append(errs, "http.burst must not be negative")
	}
	if c.HTTP.MaxPages < 0 {
		errs = append(errs, "http.max_pages must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// ConfigDir returns the XDG config directory for nodekit. It is not
// created.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "nodekit"), nil
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
