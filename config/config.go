// Package config loads MiniPar's TOML-backed configuration: compiler
// limits, interpreter runtime knobs, and CLI/REPL display preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents MiniPar's compiler/runtime configuration.
type Config struct {
	// Compiler settings
	Compiler struct {
		LtorgInterval  int  `toml:"ltorg_interval"`
		EnableTrace    bool `toml:"enable_trace"`
		MaxSyntaxError int  `toml:"max_syntax_errors"`
	} `toml:"compiler"`

	// Interpreter settings
	Interpreter struct {
		MaxLoopIterations int  `toml:"max_loop_iterations"`
		ParWorkerPoolSize int  `toml:"par_worker_pool_size"`
		EnableChannelLog  bool `toml:"enable_channel_log"`
	} `toml:"interpreter"`

	// Runtime/CLI settings
	Runtime struct {
		ColorOutput  bool   `toml:"color_output"`
		NumberFormat string `toml:"number_format"` // dec, hex
		HistorySize  int    `toml:"history_size"`
	} `toml:"runtime"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Compiler.LtorgInterval = 25
	cfg.Compiler.EnableTrace = false
	cfg.Compiler.MaxSyntaxError = 50

	cfg.Interpreter.MaxLoopIterations = 1000000
	cfg.Interpreter.ParWorkerPoolSize = 8
	cfg.Interpreter.EnableChannelLog = true

	cfg.Runtime.ColorOutput = true
	cfg.Runtime.NumberFormat = "dec"
	cfg.Runtime.HistorySize = 1000

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "miniparc")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "miniparc")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return err
}
