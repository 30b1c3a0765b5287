// Package config loads device profiles from YAML files and environment
// variables. A profile names a backend and its settings, so programs pick
// devices by profile name instead of hard-coding construction arguments.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/quantafoundry/quantum-devices-framework/device"
	"github.com/quantafoundry/quantum-devices-framework/pkg/logger"
)

// DeviceProfile describes how to construct one device.
type DeviceProfile struct {
	Backend string         `mapstructure:"backend" yaml:"backend"` // Registry name, e.g. "default.qubit"
	Wires   int            `mapstructure:"wires" yaml:"wires"`
	Shots   int            `mapstructure:"shots" yaml:"shots,omitempty"`
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"` // Backend-specific settings
}

// RemoteConfig carries shared credentials for remote backends, so they are
// not repeated per profile.
//
// WARNING: This data type contains sensitive fields and should not be logged
// or set in file configuration.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // Secret: service bearer token
}

// LoggingConfig controls framework logging.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // zap level name, e.g. "info"
}

// Logger builds a logger at the configured level. An empty level means info.
func (l LoggingConfig) Logger() (logger.Logger, error) {
	level := zapcore.InfoLevel
	if l.Level != "" {
		if err := level.Set(l.Level); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
		}
	}

	cfg := logger.Config{Level: level}

	return cfg.New()
}

// Config is the top-level framework configuration.
type Config struct {
	DefaultDevice string                   `mapstructure:"default_device" yaml:"default_device"`
	Devices       map[string]DeviceProfile `mapstructure:"devices" yaml:"devices"`
	Remote        RemoteConfig             `mapstructure:"remote" yaml:"remote,omitempty"`
	Logging       LoggingConfig            `mapstructure:"logging" yaml:"logging,omitempty"`
}

// Validate checks profile consistency.
func (c *Config) Validate() error {
	for name, profile := range c.Devices {
		if profile.Backend == "" {
			return fmt.Errorf("device profile %s: backend is required", name)
		}
		if profile.Wires <= 0 {
			return fmt.Errorf("device profile %s: wires must be positive, got %d", name, profile.Wires)
		}
		if profile.Shots < 0 {
			return fmt.Errorf("device profile %s: shots must not be negative, got %d", name, profile.Shots)
		}
	}

	if c.DefaultDevice != "" {
		if _, ok := c.Devices[c.DefaultDevice]; !ok {
			return fmt.Errorf("default device %s has no profile", c.DefaultDevice)
		}
	}

	return nil
}

// Profile returns the named profile, falling back to the default device when
// name is empty.
func (c *Config) Profile(name string) (DeviceProfile, error) {
	if name == "" {
		name = c.DefaultDevice
	}
	if name == "" {
		return DeviceProfile{}, errors.New("no device profile named and no default device configured")
	}

	profile, ok := c.Devices[name]
	if !ok {
		return DeviceProfile{}, fmt.Errorf("no device profile named %s", name)
	}

	return profile, nil
}

// Load loads the config from a file, with environment variables taking over
// when the file does not exist.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// If the config file exists, we continue to read it, otherwise we
	// fall back to using environment variables.
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := viper.New()

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// LoadFile loads the config from a file.
func LoadFile(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envBindings defines how environment variables map to configuration keys
// used by Viper. Each entry maps a config key to the environment variable
// names that can provide its value, checked in order.
var envBindings = map[string][]string{
	"default_device":  {"QDF_DEFAULT_DEVICE"},
	"logging.level":   {"QDF_LOG_LEVEL"},
	"remote.base_url": {"QDF_REMOTE_BASE_URL"},
	"remote.api_key":  {"QDF_REMOTE_API_KEY"},
}

// bindEnvs binds the environment variable mappings to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return nil
}

// NewDevice constructs the device described by a profile. Remote credentials
// from the top-level remote section fill in profile options that are unset.
func NewDevice(cfg *Config, name string, opts ...device.Option) (*device.Device, error) {
	profile, err := cfg.Profile(name)
	if err != nil {
		return nil, err
	}

	options := make(map[string]any, len(profile.Options)+2)
	for k, val := range profile.Options {
		options[k] = val
	}
	if _, ok := options["base_url"]; !ok && cfg.Remote.BaseURL != "" {
		options["base_url"] = cfg.Remote.BaseURL
	}
	if _, ok := options["api_key"]; !ok && cfg.Remote.APIKey != "" {
		options["api_key"] = cfg.Remote.APIKey
	}

	deviceOpts := []device.Option{device.WithBackendOptions(options)}
	if profile.Shots > 0 {
		deviceOpts = append(deviceOpts, device.WithShots(profile.Shots))
	}
	deviceOpts = append(deviceOpts, opts...)

	return device.New(profile.Backend, profile.Wires, deviceOpts...)
}
