package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the pagectl configuration. Every key can be set by flag, by a
// PAGECTL_-prefixed environment variable or in the optional config file.
type Config struct {
	RedisAddr     string        `mapstructure:"redis_addr" validate:"required,hostname_port"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0,lte=15"`
	Prefix        string        `mapstructure:"prefix" validate:"required"`
	PerPage       int           `mapstructure:"per_page" validate:"gt=0"`
	Listen        string        `mapstructure:"listen" validate:"required"`
	CountCacheTTL time.Duration `mapstructure:"count_cache_ttl" validate:"gte=0"`
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogPretty     bool          `mapstructure:"log_pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("prefix", "pagewindow:records")
	v.SetDefault("per_page", 30)
	v.SetDefault("listen", ":8080")
	v.SetDefault("count_cache_ttl", 5*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("PAGECTL")
	v.AutomaticEnv()
	return v
}

// bindFlags binds dashed flag names to the underscored config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

var validate = validator.New()

// loadConfig reads the optional config file and decodes and validates the
// merged configuration.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
