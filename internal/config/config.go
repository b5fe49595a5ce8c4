// Package config loads the server configuration from the environment,
// an optional .env file and an optional YAML/JSON config file.
//
// Precedence, highest first:
//
//  1. Process environment variables
//  2. Variables from the .env file (never override the process environment)
//  3. The config file passed with --config
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ironsheep/gemini-vision-mcp/internal/apperr"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultModel          = "google/gemini-2.0-flash-exp"
	DefaultLogLevel       = "info"
	DefaultMaxImageSizeMB = 10
)

// Config holds the resolved settings. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	APIKey            string `validate:"required"`
	BaseURL           string `validate:"required,url"`
	Model             string `validate:"required"`
	LogLevel          string `validate:"oneof=debug info warn error"`
	LogFile           string
	MaxImageSizeMB    int `validate:"gte=0"`
	MaxImageDimension int `validate:"gte=0"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an optional YAML or JSON file read by viper.
	ConfigFile string

	// EnvFile is an optional dotenv file. When empty, ENV_FILE_PATH and then
	// ./.env are tried. A missing file is not an error.
	EnvFile string
}

// envVar maps a config key to the environment variable that sets it.
type envVar struct {
	key  string
	name string
}

var envVars = []envVar{
	{key: "api_key", name: "OPENROUTER_API_KEY"},
	{key: "base_url", name: "OPENROUTER_BASE_URL"},
	{key: "model", name: "GEMINI_MODEL"},
	{key: "log_level", name: "LOG_LEVEL"},
	{key: "log_file", name: "LOG_FILE"},
	{key: "max_image_size_mb", name: "MAX_IMAGE_SIZE_MB"},
	{key: "max_image_dimension", name: "MAX_IMAGE_DIMENSION"},
}

// Load resolves the configuration. A missing API key or any other invalid
// setting is reported as an apperr.ConfigError.
func Load(opts Options) (*Config, error) {
	loadDotEnv(opts.EnvFile)

	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("max_image_size_mb", DefaultMaxImageSizeMB)
	v.SetDefault("max_image_dimension", 0)

	for _, env := range envVars {
		if err := v.BindEnv(env.key, env.name); err != nil {
			return nil, apperr.Wrap(err, apperr.ConfigError, "failed to bind %s", env.name)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Wrap(err, apperr.ConfigError, "error reading config file %s", opts.ConfigFile)
		}
	}

	maxSize, err := intSetting(v, "max_image_size_mb", "MAX_IMAGE_SIZE_MB")
	if err != nil {
		return nil, err
	}
	maxDim, err := intSetting(v, "max_image_dimension", "MAX_IMAGE_DIMENSION")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKey:            strings.TrimSpace(v.GetString("api_key")),
		BaseURL:           strings.TrimRight(v.GetString("base_url"), "/"),
		Model:             v.GetString("model"),
		LogLevel:          strings.ToLower(v.GetString("log_level")),
		LogFile:           v.GetString("log_file"),
		MaxImageSizeMB:    maxSize,
		MaxImageDimension: maxDim,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// intSetting reads an integer setting. viper's GetInt turns anything it
// cannot parse into 0, which here would mean "no limit".
func intSetting(v *viper.Viper, key, name string) (int, error) {
	raw, err := cast.ToStringE(v.Get(key))
	if err != nil {
		return 0, apperr.Wrap(err, apperr.ConfigError, "invalid configuration: %s must be an integer", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.New(apperr.ConfigError, "invalid configuration: %s must be an integer, got %q", name, raw)
	}
	return n, nil
}

// Validate checks the struct tags. The API key gets its own message since
// it is the one setting users most often forget.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return apperr.New(apperr.ConfigError, "OPENROUTER_API_KEY environment variable is required")
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return apperr.New(apperr.ConfigError, "invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return apperr.Wrap(err, apperr.ConfigError, "invalid configuration")
	}
	return nil
}

// MaxImageBytes is the image size limit in bytes, or 0 for no limit.
func (c *Config) MaxImageBytes() int64 {
	return int64(c.MaxImageSizeMB) * 1024 * 1024
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Info reports whether informational messages are logged.
func (c *Config) Info() bool {
	return c.LogLevel == "debug" || c.LogLevel == "info"
}

// Redacted returns a loggable summary with secrets hidden.
func (c *Config) Redacted() map[string]interface{} {
	return map[string]interface{}{
		"api_key":             "[REDACTED]",
		"base_url":            c.BaseURL,
		"model":               c.Model,
		"log_level":           c.LogLevel,
		"log_file":            c.LogFile,
		"max_image_size_mb":   c.MaxImageSizeMB,
		"max_image_dimension": c.MaxImageDimension,
	}
}

// loadDotEnv reads a dotenv file into the process environment. Variables
// that are already set win over the file.
func loadDotEnv(path string) {
	if path == "" {
		path = os.Getenv("ENV_FILE_PATH")
	}
	if path != "" {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
	// Fall back to ./.env; absence is normal when the environment is injected
	_ = godotenv.Load()
}
