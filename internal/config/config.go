// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Color modes accepted by the color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	colorModes = []string{ColorAuto, ColorAlways, ColorNever}
	logLevels  = []string{"debug", "info", "warn", "warning", "error"}
)

// Config holds all configuration values for agenttrace.
type Config struct {
	LogLevel     string   `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string   `mapstructure:"log_file" yaml:"log_file"`
	Output       string   `mapstructure:"output" yaml:"output"`
	Color        string   `mapstructure:"color" yaml:"color"`
	DataDir      string   `mapstructure:"data_dir" yaml:"data_dir"`
	AgentCommand []string `mapstructure:"agent_command" yaml:"agent_command"`
	WorkDir      string   `mapstructure:"workdir" yaml:"workdir"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Color:        ColorAuto,
		DataDir:      ".agenttrace",
		AgentCommand: []string{},
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith is Load on a caller-provided instance, typically one with CLI
// flags already bound via BindPFlag.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")
	v.SetConfigName("agenttrace")

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("output", def.Output)
	v.SetDefault("color", def.Color)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("agent_command", def.AgentCommand)
	v.SetDefault("workdir", def.WorkDir)

	v.SetEnvPrefix("AGENTTRACE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{"log_level", "log_file", "output", "color", "data_dir", "agent_command", "workdir"} {
		if err := v.BindEnv(key, "AGENTTRACE_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(colorModes, strings.ToLower(c.Color)) {
		return fmt.Errorf("invalid color mode %q (want one of %s)", c.Color, strings.Join(colorModes, ", "))
	}
	if c.LogLevel != "" && !slices.Contains(logLevels, strings.ToLower(strings.TrimSpace(c.LogLevel))) {
		return fmt.Errorf("invalid log level %q (want one of debug, info, warn, error)", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/agenttrace/agenttrace.yml or $XDG_CONFIG_HOME/agenttrace/agenttrace.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agenttrace", "agenttrace.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agenttrace", "agenttrace.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "agenttrace.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
