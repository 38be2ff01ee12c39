// Package config loads toolflow settings from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file looked up in the home directory.
	FileName = ".toolflow.yaml"

	// Provider defaults.
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultModel       = "openai/gpt-3.5-turbo"
	DefaultTemperature = 0.7
	DefaultTitle       = "Hands-on LangChain"
)

// ErrMissingAPIKey is returned by Validate when no OpenRouter key is set.
var ErrMissingAPIKey = errors.New(
	"OpenRouter API key is required. Set OPENROUTER_API_KEY environment variable or openrouter.api_key in the config file")

// Config is the full toolflow configuration.
type Config struct {
	OpenRouter   OpenRouter   `mapstructure:"openrouter"`
	Orchestrator Orchestrator `mapstructure:"orchestrator"`
	Log          Log          `mapstructure:"log"`
}

// OpenRouter configures the model provider.
type OpenRouter struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	HTTPReferer string  `mapstructure:"http_referer"`
	Title       string  `mapstructure:"title"`
	// Timeout bounds one HTTP round trip to the provider; zero means none.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Orchestrator configures the tool-calling loop and its registry.
type Orchestrator struct {
	MaxIterations  int           `mapstructure:"max_iterations"`
	Parallel       bool          `mapstructure:"parallel"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	ToolTimeout    time.Duration `mapstructure:"tool_timeout"`
}

// Log selects the slog level and handler format.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps keys to the unprefixed variables the provider tooling uses.
// TOOLFLOW_<KEY> always works as well.
var envBindings = map[string]string{
	"openrouter.api_key":      "OPENROUTER_API_KEY",
	"openrouter.http_referer": "OPENROUTER_HTTP_REFERER",
	"openrouter.model":        "OPENROUTER_MODEL",
	"openrouter.base_url":     "OPENROUTER_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", DefaultBaseURL)
	v.SetDefault("openrouter.model", DefaultModel)
	v.SetDefault("openrouter.temperature", DefaultTemperature)
	v.SetDefault("openrouter.http_referer", "")
	v.SetDefault("openrouter.title", DefaultTitle)
	v.SetDefault("openrouter.timeout", 0)
	v.SetDefault("orchestrator.max_iterations", 5)
	v.SetDefault("orchestrator.parallel", false)
	v.SetDefault("orchestrator.max_concurrency", 0)
	v.SetDefault("orchestrator.tool_timeout", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration with no file and no environment applied.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return cfg
}

// DefaultPath returns $HOME/.toolflow.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Load reads path, or DefaultPath when path is empty. An explicit path must exist;
// a missing default file is not an error. The API key is not checked here, see Validate.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("TOOLFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		prefixed := "TOOLFLOW_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	explicit := path != ""
	if explicit {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return Config{}, fmt.Errorf("expand config path: %w", err)
		}
		path = expanded
	} else {
		def, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = def
	}

	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.check(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// check validates everything except credentials.
func (c *Config) check() error {
	if strings.TrimSpace(c.OpenRouter.BaseURL) == "" {
		return errors.New("openrouter.base_url is required")
	}
	if strings.TrimSpace(c.OpenRouter.Model) == "" {
		return errors.New("openrouter.model is required")
	}
	if c.OpenRouter.Temperature < 0 || c.OpenRouter.Temperature > 2 {
		return fmt.Errorf("openrouter.temperature must be within [0, 2], got %v", c.OpenRouter.Temperature)
	}
	if c.Orchestrator.MaxIterations <= 0 {
		return fmt.Errorf("orchestrator.max_iterations must be positive, got %d", c.Orchestrator.MaxIterations)
	}
	if c.Orchestrator.MaxConcurrency < 0 {
		return fmt.Errorf("orchestrator.max_concurrency must not be negative, got %d", c.Orchestrator.MaxConcurrency)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Validate is check plus the credentials a model client needs.
func (c *Config) Validate() error {
	if err := c.check(); err != nil {
		return err
	}
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds a text or JSON slog logger writing to w.
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format must be text or json, got %q", l.Format)
	}
}
