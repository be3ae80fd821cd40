package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pricing agent service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai-compatible chat completions
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string   `mapstructure:"name"`
	APIName         string   `mapstructure:"api_name"`
	MaxTokens       int      `mapstructure:"max_tokens"`
	Temperature     float64  `mapstructure:"temperature"`
	CostPer1K       float64  `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64  `mapstructure:"cost_per_1k_output"`
	Capabilities    []string `mapstructure:"capabilities"` // planning, classification, answering
}

// LLMRoutingConfig defines which model to use for different tasks
type LLMRoutingConfig struct {
	Planning       string `mapstructure:"planning"`       // plan drafting and correction
	Classification string `mapstructure:"classification"` // required-action inference
	Answering      string `mapstructure:"answering"`      // final answer narration
	Fallback       string `mapstructure:"fallback"`
}

// ModelFor resolves the routed model for a task, falling back when unset.
func (r LLMRoutingConfig) ModelFor(task string) string {
	var model string
	switch task {
	case "planning":
		model = r.Planning
	case "classification":
		model = r.Classification
	case "answering":
		model = r.Answering
	}
	if model == "" {
		model = r.Fallback
	}
	if model == "" {
		model = r.Planning
	}
	return model
}

// WorkflowConfig describes how to reach the pricing tool server over MCP.
// Either Command (stdio transport) or Endpoint (streamable HTTP) must be set.
type WorkflowConfig struct {
	Command        string        `mapstructure:"command"`
	Args           []string      `mapstructure:"args"`
	Env            []string      `mapstructure:"env"`
	Endpoint       string        `mapstructure:"endpoint"`
	SpecResource   string        `mapstructure:"spec_resource"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func (w WorkflowConfig) Validate() error {
	if strings.TrimSpace(w.Command) == "" && strings.TrimSpace(w.Endpoint) == "" {
		return fmt.Errorf("workflow.command or workflow.endpoint is required")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings for the pricing-document cache
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Enabled reports whether a cache backend is configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is set")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings for the audit store
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether the audit store is configured.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// DSN builds a connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	host := p.Host
	port := p.Port
	ssl := p.SSLMode
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, host, port, p.DBName, ssl)
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return nil
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when host is set")
	}
	return nil
}

// UploadsConfig controls where uploaded Pricing2Yaml files are stored
type UploadsConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

// TelemetryConfig contains telemetry and cost-tracking settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CostTracking bool   `mapstructure:"cost_tracking"`
	LogFile      string `mapstructure:"log_file"`
}

// LoadConfig loads config from file, env (HARVEY_*) and defaults
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "120s")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("workflow.spec_resource", "resource://pricing/specification")
	viper.SetDefault("workflow.connect_timeout", "30s")
	viper.SetDefault("storage.redis.cache_ttl", "1h")
	viper.SetDefault("uploads.dir", "uploads")
	viper.SetDefault("uploads.max_bytes", 1<<20)
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.cost_tracking", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("HARVEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// a missing file is fine, env and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
