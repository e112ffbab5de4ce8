package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// LLM configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Sandbox configuration
	Sandbox SandboxConfig `mapstructure:"sandbox"`

	// Templates configuration
	Templates TemplatesConfig `mapstructure:"templates"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
	// DataRoot confines dataset paths named in /ask requests. Empty allows any path.
	DataRoot string `mapstructure:"data_root"`
	// AuthSecret enables HS256 bearer token checks on the API routes.
	AuthSecret string `mapstructure:"auth_secret"`
}

// LLMConfig holds LLM configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai, openai_compatible, ollama, anthropic, gemini
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Breaker trips after this many consecutive failures; zero disables it.
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
	// RequestsPerMinute throttles model calls; zero means unlimited.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
}

// CacheConfig selects where results are cached
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // fs, badger, sqlite or none
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"` // badger and sqlite
}

// SandboxConfig controls generated code execution
type SandboxConfig struct {
	TempDir        string        `mapstructure:"temp_dir"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxFixAttempts int           `mapstructure:"max_fix_attempts"`
	SampleRows     int           `mapstructure:"sample_rows"`
}

// TemplatesConfig points at an optional directory overriding the embedded prompts
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// TelemetryConfig controls the DuckDB log and token usage sink
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from the global viper instance and environment variables
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes configuration from v after applying defaults.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// ReadFile loads a config file into the global viper instance.
func ReadFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.data_root", "")
	v.SetDefault("server.auth_secret", "")

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.timeout", "2m")
	v.SetDefault("llm.breaker_failures", 5)
	v.SetDefault("llm.requests_per_minute", 0)

	// Cache defaults
	v.SetDefault("cache.backend", "fs")
	v.SetDefault("cache.dir", ".geoai_cache")
	v.SetDefault("cache.ttl", 0)

	// Sandbox defaults
	v.SetDefault("sandbox.temp_dir", "")
	v.SetDefault("sandbox.timeout", "1m")
	v.SetDefault("sandbox.max_fix_attempts", 5)
	v.SetDefault("sandbox.sample_rows", 5)

	v.SetDefault("templates.dir", "")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.path", "geoai_telemetry.duckdb")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = providerAPIKey(config.LLM.Provider)
	}
	if baseURL := os.Getenv("GEOAI_LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("GEOAI_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if dir := os.Getenv("GEOAI_CACHE_DIR"); dir != "" {
		config.Cache.Dir = dir
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
}

// providerAPIKey reads the key from the variable the provider's own SDK uses.
func providerAPIKey(provider string) string {
	var names []string
	switch provider {
	case "", "openai", "openai_compatible":
		names = []string{"OPENAI_API_KEY"}
	case "anthropic":
		names = []string{"ANTHROPIC_API_KEY"}
	case "gemini":
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the settings every entry point depends on.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "fs", "badger", "sqlite", "none":
	default:
		return fmt.Errorf("invalid cache backend %q (want fs, badger, sqlite or none)", c.Cache.Backend)
	}
	if c.Cache.Backend != "none" && c.Cache.Dir == "" {
		return fmt.Errorf("cache dir is required for the %s backend", c.Cache.Backend)
	}
	if c.Sandbox.MaxFixAttempts < 0 {
		return fmt.Errorf("sandbox max_fix_attempts must not be negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm requests_per_minute must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	return nil
}
