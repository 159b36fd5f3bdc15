package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/common"
)

// Config is the resolved application configuration.
type Config struct {
	Scope   ScopeConfig   `mapstructure:"scope"`
	Logging LoggingConfig `mapstructure:"logging"`
	Storage StorageConfig `mapstructure:"storage"`
	API     APIConfig     `mapstructure:"api"`
	UI      UIConfig      `mapstructure:"ui"`
}

// APIConfig configures the PG API client.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	PageSize int           `mapstructure:"page_size" validate:"min=1,max=100"`
}

// ScopeConfig holds fallback scope headers. Values selected with
// `hostelctl location use` take precedence.
type ScopeConfig struct {
	OrganizationID string `mapstructure:"organization_id" validate:"omitempty,numeric"`
	LocationID     string `mapstructure:"location_id" validate:"omitempty,numeric"`
	UserID         string `mapstructure:"user_id"`
}

// StorageConfig locates the local session database.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoggingConfig mirrors the --log-level and --log-format flags.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// UIConfig tunes the interactive list browser.
type UIConfig struct {
	Theme     string `mapstructure:"theme" validate:"oneof=default catppuccin-mocha"`
	AltScreen bool   `mapstructure:"alt_screen"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// SetDefaults registers every known key so environment variables are seen
// by Unmarshal even without a config file.
func SetDefaults(v *viper.Viper) {
	defaults := api.DefaultConfig()

	v.SetDefault("api.base_url", "http://localhost:3000/api/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", defaults.Timeout)
	v.SetDefault("api.page_size", defaults.PageSize)
	v.SetDefault("scope.organization_id", "")
	v.SetDefault("scope.location_id", "")
	v.SetDefault("scope.user_id", "")
	v.SetDefault("storage.path", DefaultStoragePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.alt_screen", true)
	setSheetsDefaults(v)
}

// Load resolves the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	cfg.API.Token = strings.TrimSpace(cfg.API.Token)
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.UI.Theme = strings.ToLower(strings.TrimSpace(cfg.UI.Theme))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and names the offending keys.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s %s", keyOf(fe), rule(fe)))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(problems, "; "))
}

// Client returns the API client settings.
func (c APIConfig) Client() api.Config {
	cfg := api.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	cfg.PageSize = c.PageSize
	return cfg
}

// Scope returns the configured scope headers.
func (s ScopeConfig) Scope() api.Scope {
	return api.Scope{
		OrganizationID: s.OrganizationID,
		LocationID:     s.LocationID,
		UserID:         s.UserID,
	}
}

// keyOf turns "Config.api.base_url" into "api.base_url".
func keyOf(fe validator.FieldError) string {
	_, key, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return key
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a URL"
	case "numeric":
		return "must be numeric"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
