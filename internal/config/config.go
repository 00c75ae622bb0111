// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment overrides.
const (
	// EnvConfigJSON holds a JSON document merged over the TOML file.
	EnvConfigJSON = "SUPPLYCONNECT_CONFIG_JSON"
	// EnvMasterKey holds the vault master key.
	EnvMasterKey = "SUPPLYCONNECT_MASTER_KEY"
)

const redacted = "********"

// ReadConfig reads path/main.toml, merges EnvConfigJSON over it and validates the result.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configJSON := os.Getenv(EnvConfigJSON); configJSON != "" {
		var err error

		if c, err = decodeAndMergeConfig(c, configJSON); err != nil {
			return c, err
		}
	}

	if key := os.Getenv(EnvMasterKey); key != "" {
		c.Vault.MasterKey = key
	}

	return c, validate(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Title", "SupplyConnect")
	v.SetDefault("DB.GormEngine", EngineSQLite)
	v.SetDefault("Webserver.ShutDownTime", 5)   //nolint:mnd
	v.SetDefault("Webserver.LoginRateLimit", 1) //nolint:mnd
	v.SetDefault("Webserver.LoginBurst", 5)     //nolint:mnd
	v.SetDefault("Webserver.Session.ExpiryTime", "8h")
	v.SetDefault("Directory.DefaultTimeout", 10) //nolint:mnd
	v.SetDefault("Directory.PageSize", 500)     //nolint:mnd
	v.SetDefault("Sync.Schedule", "@every 6h")
	v.SetDefault("Sync.LockTTL", "30m")
	v.SetDefault("Sync.Kinds", []string{"groups", "users", "memberships"})
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from "+EnvConfigJSON)
	}

	return c, nil
}

// Redacted returns a copy of c without secrets, for display.
func Redacted(c Config) Config {
	if c.DB.Password != "" {
		c.DB.Password = redacted
	}

	if c.Vault.MasterKey != "" {
		c.Vault.MasterKey = redacted
	}

	return c
}

// DumpConfig config as TOML String. Secrets are redacted.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(Redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. Secrets are redacted.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(Redacted(c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Sync.Enabled && c.Sync.Schedule == "" {
		return errors.Wrap(ErrSyncScheduleMissing, invalidErrMessage)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(ErrInvalidValue, err.Error())
	}

	return nil
}
