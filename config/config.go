// Package config loads lmflux settings from a file, the environment and .env
// files.
//
// Precedence, highest first: LMFLUX_* environment variables, the
// OPENAI_API_BASE and OPENAI_API_KEY variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LMFLUX"

// Config holds the settings needed to build models and loggers.
type Config struct {
	Provider          string  `mapstructure:"provider" yaml:"provider"`
	Model             string  `mapstructure:"model" yaml:"model"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	LogLevel          string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string  `mapstructure:"log_format" yaml:"log_format"`
	TemplateDir       string  `mapstructure:"template_dir" yaml:"template_dir,omitempty"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// LoadDotEnv loads .env files into the process environment. Without
// arguments it reads ./.env; a missing default file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Load reads the config file at path (yaml, json or toml by extension) and
// overlays the environment. An empty path searches ./lmflux.yaml and
// $HOME/.lmflux/lmflux.yaml and falls back to defaults when neither exists.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lmflux")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.lmflux")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Default(), fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// FromEnv builds a Config from defaults and the environment only.
func FromEnv() (Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("max_tokens", d.MaxTokens)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("template_dir", d.TemplateDir)
	v.SetDefault("requests_per_second", d.RequestsPerSecond)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// the OpenAI client conventions; LMFLUX_* still wins
	_ = v.BindEnv("base_url", EnvPrefix+"_BASE_URL", "OPENAI_API_BASE", "OPENAI_BASE_URL")
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")

	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case "openai", "anthropic", "echo":
	default:
		errs = append(errs, fmt.Errorf("config: unknown provider %q", c.Provider))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("config: model is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: temperature %v out of range [0, 2]", c.Temperature))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("config: max_tokens must not be negative"))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("config: requests_per_second must not be negative"))
	}
	return errors.Join(errs...)
}

// Options returns the generation options implied by the config.
func (c Config) Options() core.LLMOptions {
	opts := core.LLMOptions{"temperature": c.Temperature}
	if c.MaxTokens > 0 {
		opts["max_tokens"] = c.MaxTokens
	}
	return opts
}

// Logger builds the logger described by LogLevel and LogFormat.
func (c Config) Logger(verbose bool) logging.Logger {
	level := logging.ParseLevel(c.LogLevel)
	if verbose {
		level = logging.LogLevelDebug
	}
	return logging.NewSlogLogger(level, c.LogFormat, verbose)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "****"
	}
	return c
}

// YAML renders the redacted config.
func (c Config) YAML() (string, error) {
	b, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}

// Save writes the config as yaml to path, API key included.
func (c Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
