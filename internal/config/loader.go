package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"fitbridge/pkg/logging"
)

// LoadConfig loads the configuration from defaults, the optional YAML file
// at configPath and the process environment, in that order, and validates
// the result.
func LoadConfig(configPath string) (Config, error) {
	return load(configPath, env.Options{})
}

// LoadConfigWithEnv is LoadConfig with an explicit environment instead of
// the process environment.
func LoadConfigWithEnv(configPath string, environ map[string]string) (Config, error) {
	return load(configPath, env.Options{Environment: environ})
}

func load(configPath string, opts env.Options) (Config, error) {
	config := GetDefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: "io", Err: fmt.Errorf("config file not found")}
			}
			return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: "io", Err: err}
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, &ConfigurationError{FilePath: configPath, ErrorType: "parse", Err: err}
		}
		logging.Info("Config", "Loaded configuration from %s", configPath)
	}

	// Unset variables leave the values from defaults and the file alone.
	if err := env.ParseWithOptions(&config, opts); err != nil {
		return Config{}, &ConfigurationError{ErrorType: "env", Err: err}
	}

	if err := Validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}
