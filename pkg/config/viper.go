package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/streamline/pkg/dotdir"
)

const envPrefix = "STREAMLINE"

var envKeyReplacer = strings.NewReplacer(".", "_")

// Origin names the layer an effective config value was resolved from.
type Origin string

const (
	OriginEnv     Origin = "env"
	OriginFile    Origin = "file"
	OriginDefault Origin = "default"
)

// InitViper returns a viper instance layered as, highest first: flags bound
// later through BindRegisteredFlags, STREAMLINE_ environment variables, the
// resolved config.toml, then NewDefaultConfig.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if target != "" {
		v.AddConfigPath(target)
	}

	err = v.ReadInConfig()
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	return v, nil
}

// EnvVar returns the environment variable that overrides key, for example
// STREAMLINE_TAIL_CAPACITY for tail.capacity.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// Effective resolves key through v and reports which layer supplied it.
// Flags are not considered; callers that bind flags already know when one
// was set.
func Effective(v *viper.Viper, key string) (string, Origin) {
	value := v.GetString(key)

	// viper ignores empty environment values.
	if env, ok := os.LookupEnv(EnvVar(key)); ok && env != "" {
		return value, OriginEnv
	}
	if v.InConfig(key) {
		return value, OriginFile
	}
	return value, OriginDefault
}

// setViperDefaults registers every config key's default, rendered the same
// way GetConfigValue renders it, so defaults.go stays the single source.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for key, info := range configKeys {
		v.SetDefault(key, info.get(d))
	}
}
