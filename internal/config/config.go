// Package config loads ChangelogAI settings from defaults, an optional
// YAML or JSON file, and CHANGELOGAI_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// EnvPrefix namespaces environment overrides. Nesting uses "__", so
// CHANGELOGAI_AI__MODEL sets ai.model.
const EnvPrefix = "CHANGELOGAI_"

// DefaultConfigFile is loaded when no path is given and the file exists.
const DefaultConfigFile = "changelogai.yaml"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	AI      AIConfig      `koanf:"ai"`
	GitHub  GitHubConfig  `koanf:"github"`
	Git     GitConfig     `koanf:"git"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Dev     DevConfig     `koanf:"dev"`
}

type ServerConfig struct {
	Host               string `koanf:"host"`
	Port               int    `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeoutSeconds int    `koanf:"read_timeout_seconds" validate:"min=1"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

type StoreConfig struct {
	Backend  string `koanf:"backend" validate:"oneof=memory file sqlite"`
	FilePath string `koanf:"file_path" validate:"required_if=Backend file"`
	DataDir  string `koanf:"data_dir" validate:"required_if=Backend sqlite"`
}

// AIConfig configures the generation client. APIKey may be empty; the
// client reports that as a configuration error when it is first used.
type AIConfig struct {
	Provider        string  `koanf:"provider" validate:"oneof=gemini openai ollama"`
	APIKey          string  `koanf:"api_key"`
	Endpoint        string  `koanf:"endpoint" validate:"omitempty,url"`
	Model           string  `koanf:"model"`
	Temperature     float64 `koanf:"temperature" validate:"min=0,max=2"`
	TopK            int     `koanf:"top_k" validate:"min=0"`
	TopP            float64 `koanf:"top_p" validate:"min=0,max=1"`
	MaxOutputTokens int     `koanf:"max_output_tokens" validate:"min=1"`
	TimeoutSeconds  int     `koanf:"timeout_seconds" validate:"min=1"`
}

// Timeout returns the request timeout as a duration.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type GitHubConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Token   string `koanf:"token"`
	PerPage int    `koanf:"per_page" validate:"min=1,max=100"`
}

// GitConfig gates the git transport. When Enabled is false only GitHub
// repositories can be imported over HTTP.
type GitConfig struct {
	Enabled    bool `koanf:"enabled"`
	MaxCommits int  `koanf:"max_commits" validate:"min=1"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required,startswith=/"`
}

type DevConfig struct {
	EnableReset bool `koanf:"enable_reset"`
}

// GetDefaults returns the default value of every key.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"server.host":                 "",
		"server.port":                 8080,
		"server.read_timeout_seconds": 15,
		"store.backend":               "memory",
		"store.file_path":             filepath.Join("data", "changelogai.json"),
		"store.data_dir":              "data",
		"ai.provider":                 "gemini",
		"ai.api_key":                  "",
		"ai.endpoint":                 "",
		"ai.model":                    "",
		"ai.temperature":              0.2,
		"ai.top_k":                    40,
		"ai.top_p":                    0.95,
		"ai.max_output_tokens":        4096,
		"ai.timeout_seconds":          60,
		"github.base_url":             "https://api.github.com",
		"github.token":                "",
		"github.per_page":             100,
		"git.enabled":                 false,
		"git.max_commits":             100,
		"log.level":                   "info",
		"log.pretty":                  false,
		"metrics.enabled":             true,
		"metrics.path":                "/metrics",
		"dev.enable_reset":            false,
	}
}

// legacyEnv maps the variable names used by earlier deployments to keys.
// They sit below CHANGELOGAI_ variables in precedence.
var legacyEnv = map[string]string{
	"GOOGLE_AI_API_KEY": "ai.api_key",
	"GITHUB_TOKEN":      "github.token",
	"PORT":              "server.port",
}

// Load reads defaults, then the config file, then the environment.
// An empty configPath loads DefaultConfigFile when it exists.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	if err := loadFile(k, configPath); err != nil {
		return nil, err
	}

	for name, key := range legacyEnv {
		if v := os.Getenv(name); v != "" {
			k.Set(key, v)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	return finalize(k)
}

func loadFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return nil
}

// envTransform maps CHANGELOGAI_AI__API_KEY to ai.api_key.
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func finalize(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and returns the first violation as a
// configuration error naming the offending key.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		return name
	})

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fieldErr := validationErrors[0]
			return apperrors.Configuration(fmt.Sprintf("config %s %s", keyOf(fieldErr), formatValidationError(fieldErr)))
		}
		return apperrors.Wrap(apperrors.ErrConfiguration, "config validation failed", err)
	}
	return nil
}

// keyOf turns the namespace Config.ai.top_k into ai.top_k.
func keyOf(fieldErr validator.FieldError) string {
	_, key, _ := strings.Cut(fieldErr.Namespace(), ".")
	return key
}

func formatValidationError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required", "required_if":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fieldErr.Param())
	case "url":
		return "must be a URL"
	default:
		return fmt.Sprintf("failed validation: %s", fieldErr.Tag())
	}
}
