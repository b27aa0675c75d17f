package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "PURGECTL"

	cfgKeyEndpoint = "endpoint"
	cfgKeySecret   = "secret"
	cfgKeyTimeout  = "timeout"
	cfgKeyLogLevel = "log_level"

	defaultEndpoint = "http://localhost:8080"
	defaultTimeout  = 2 * time.Minute
)

// settings is the resolved CLI configuration
type settings struct {
	Endpoint string
	Secret   string
	Timeout  time.Duration
	LogLevel string
}

// loadConfig layers flags over PURGECTL_* env vars over an optional YAML file
func loadConfig(v *viper.Viper, configFile string) (*settings, error) {
	v.SetDefault(cfgKeyEndpoint, defaultEndpoint)
	v.SetDefault(cfgKeyTimeout, defaultTimeout)
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	s := &settings{
		Endpoint: strings.TrimRight(v.GetString(cfgKeyEndpoint), "/"),
		Secret:   v.GetString(cfgKeySecret),
		Timeout:  v.GetDuration(cfgKeyTimeout),
		LogLevel: v.GetString(cfgKeyLogLevel),
	}

	if s.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if s.Secret == "" {
		return nil, fmt.Errorf("secret is required (--secret or %s_SECRET)", envPrefix)
	}

	return s, nil
}
