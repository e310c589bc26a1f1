// Package config loads lequel settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/lequel/internal/chunker"
	"github.com/valpere/lequel/internal/detector"
	"github.com/valpere/lequel/internal/textsource"
)

const EnvPrefix = "LEQUEL"

const (
	SourceDir = "dir"
	SourceDB  = "db"
)

type TextConfig struct {
	Encoding    string `mapstructure:"encoding"`
	Strict      bool   `mapstructure:"strict"`
	NFC         bool   `mapstructure:"nfc"`
	StripMarkup bool   `mapstructure:"strip_markup"`
}

// Options converts the text settings into reader options.
func (t TextConfig) Options() textsource.Options {
	return textsource.Options{Encoding: t.Encoding, Strict: t.Strict, NFC: t.NFC}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"`
	Project     string `mapstructure:"project"`
}

type OllamaConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type Config struct {
	ProfilesDir        string        `mapstructure:"profiles_dir"`
	ProfilesSource     string        `mapstructure:"profiles_source"`
	DB                 string        `mapstructure:"db"`
	Workers            int           `mapstructure:"workers"`
	History            bool          `mapstructure:"history"`
	Crosscheck         []string      `mapstructure:"crosscheck"`
	CrosscheckTimeout  time.Duration `mapstructure:"crosscheck_timeout"`
	CrosscheckMaxChars int           `mapstructure:"crosscheck_max_chars"`
	Log                LogConfig     `mapstructure:"log"`
	Text               TextConfig    `mapstructure:"text"`
	Google             GoogleConfig  `mapstructure:"google"`
	Ollama             OllamaConfig  `mapstructure:"ollama"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("profiles_dir", "./resources/trigrams")
	v.SetDefault("profiles_source", SourceDir)
	v.SetDefault("db", "./data/lequel.db")
	v.SetDefault("workers", 1)
	v.SetDefault("history", false)
	v.SetDefault("crosscheck", []string{})
	v.SetDefault("crosscheck_timeout", 10*time.Second)
	v.SetDefault("crosscheck_max_chars", chunker.DefaultMaxChars)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("text.encoding", textsource.DefaultEncoding)
	v.SetDefault("text.strict", false)
	v.SetDefault("text.nfc", true)
	v.SetDefault("text.strip_markup", false)
	v.SetDefault("google.credentials", "")
	v.SetDefault("google.project", "")
	v.SetDefault("ollama.url", detector.DefaultOllamaURL)
	v.SetDefault("ollama.model", detector.DefaultOllamaModel)
}

// Load reads configuration into a Config. When file is empty, lequel.yaml is
// looked up in the working directory and $HOME/.config/lequel; a missing file
// is not an error in that case.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lequel")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lequel")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.ProfilesSource {
	case SourceDir:
		if c.ProfilesDir == "" {
			return fmt.Errorf("profiles_dir must be set when profiles_source is %q", SourceDir)
		}
	case SourceDB:
		if c.DB == "" {
			return fmt.Errorf("db must be set when profiles_source is %q", SourceDB)
		}
	default:
		return fmt.Errorf("invalid profiles_source %q (want %q or %q)", c.ProfilesSource, SourceDir, SourceDB)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.History && c.DB == "" {
		return fmt.Errorf("db must be set when history is enabled")
	}
	if c.CrosscheckTimeout <= 0 {
		return fmt.Errorf("crosscheck_timeout must be positive, got %s", c.CrosscheckTimeout)
	}
	if c.CrosscheckMaxChars < 0 {
		return fmt.Errorf("crosscheck_max_chars must not be negative, got %d", c.CrosscheckMaxChars)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q (want console or json)", c.Log.Format)
	}

	if err := textsource.CheckEncoding(c.Text.Encoding); err != nil {
		return fmt.Errorf("invalid text.encoding: %w", err)
	}
	return nil
}
