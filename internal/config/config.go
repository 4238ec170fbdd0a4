package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nulzo/polymage/pkg/platform"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	RateLimit RateLimitConfig           `mapstructure:"rate_limit"`
	Log       LogConfig                 `mapstructure:"log"`
	Tracing   TracingConfig             `mapstructure:"tracing"`
	Store     StoreConfig               `mapstructure:"store"`
	Providers []platform.ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// APIKeys enables bearer authentication on /v1 when non-empty.
	APIKeys []string `mapstructure:"api_keys"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// StoreConfig enables invocation history when Path is set.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

const envPrefix = "ENV:"

// Load reads configuration from path, or from config.yaml in the usual
// search paths when path is empty. Environment variables override file
// values, a .env file is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.api_keys", []string{})
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.color", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "polymage")
	v.SetDefault("store.path", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		p.APIKey = resolve(v, p.APIKey)
		p.AccountID = resolve(v, p.AccountID)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = ProvidersFromEnv()
	}

	return &cfg, nil
}

// resolve expands "ENV:NAME" to the value of NAME, checking the process
// environment before viper.
func resolve(v *viper.Viper, value string) string {
	if !strings.HasPrefix(value, envPrefix) {
		return value
	}
	name := strings.TrimPrefix(value, envPrefix)
	if val := os.Getenv(name); val != "" {
		return val
	}
	return v.GetString(name)
}

// ProvidersFromEnv derives provider configs from the well-known variables
// each platform uses. Hosted platforms need their credentials, local ones
// are enabled when their host is set.
func ProvidersFromEnv() []platform.ProviderConfig {
	var providers []platform.ProviderConfig

	if acct, token := os.Getenv("CLOUDFLARE_ACCOUNT_ID"), os.Getenv("CLOUDFLARE_API_TOKEN"); acct != "" && token != "" {
		providers = append(providers, platform.ProviderConfig{
			ID: "cloudflare", Type: "cloudflare", Enabled: true, AccountID: acct, APIKey: token,
		})
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		providers = append(providers, platform.ProviderConfig{
			ID: "groq", Type: "groq", Enabled: true, APIKey: key,
		})
	}
	if key := os.Getenv("TOGETHER_AI_API_KEY"); key != "" {
		providers = append(providers, platform.ProviderConfig{
			ID: "togetherai", Type: "togetherai", Enabled: true, APIKey: key,
		})
	}
	if host := os.Getenv("LMSTUDIO_HOST"); host != "" {
		providers = append(providers, platform.ProviderConfig{
			ID: "lmstudio", Type: "lmstudio", Enabled: true, Host: host,
		})
	}
	if host := os.Getenv("DRAWTHINGS_HOST"); host != "" {
		providers = append(providers, platform.ProviderConfig{
			ID: "drawthings", Type: "drawthings", Enabled: true, Host: host,
		})
	}

	return providers
}
