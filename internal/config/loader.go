package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HELPDESK_QUICKBASE_REALM.
const EnvPrefix = "HELPDESK"

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Load reads configuration from, in increasing precedence:
//  1. built-in defaults
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. HELPDESK_* environment variables and the legacy deployment names
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("%w: bind env %s: %v", ErrConfiguration, legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: read %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		} else {
			slog.Debug("Configuration file loaded", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"generator_provider", cfg.Generator.Provider,
		"generator_model", cfg.Generator.Model,
		"quickbase_realm", cfg.QuickBase.Realm,
		"teams_skip_auth", cfg.Teams.SkipAuth,
		"telegram_enabled", cfg.Telegram.Token != "")
	return cfg, nil
}

// Validate checks every struct constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
