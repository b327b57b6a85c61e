package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	YouCam    YouCamConfig
	Catalog   CatalogConfig
	Matching  MatchingConfig
	History   HistoryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OpenAIConfig holds the conversational/vision/speech provider settings
type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	ChatModel       string `mapstructure:"chat_model"`
	VisionModel     string `mapstructure:"vision_model"`
	TranscribeModel string `mapstructure:"transcribe_model"`
	SpeechModel     string `mapstructure:"speech_model"`
	Voice           string `mapstructure:"voice"`
	AudioDir        string `mapstructure:"audio_dir"`
}

// YouCamConfig holds the skin-analysis provider settings. Optional: when
// the key is empty, /skin-analyze falls back to the vision model.
type YouCamConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CatalogConfig holds the product catalog sources
type CatalogConfig struct {
	PrimaryPath    string `mapstructure:"primary_path"`
	SupplementPath string `mapstructure:"supplement_path"`
}

// MatchingConfig holds recommendation matching configuration
type MatchingConfig struct {
	MinScore           float64 `mapstructure:"min_score"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// HistoryConfig bounds the per-session conversation cache
type HistoryConfig struct {
	MaxSessions  int `mapstructure:"max_sessions"`
	MaxExchanges int `mapstructure:"max_exchanges"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/runova/")

	v.SetEnvPrefix("RUNOVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Secrets default to empty so AutomaticEnv can bind them at
	// Unmarshal time; viper only surfaces env values for known keys.
	v.SetDefault("openai.api_key", "")
	v.SetDefault("youcam.api_key", "")

	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o")
	v.SetDefault("openai.transcribe_model", "gpt-4o-transcribe")
	v.SetDefault("openai.speech_model", "tts-1-hd")
	v.SetDefault("openai.voice", "alloy")
	v.SetDefault("openai.audio_dir", "static/audio")

	v.SetDefault("youcam.base_url", "https://yce-api-01.makeupar.com")

	v.SetDefault("catalog.primary_path", "products.json")
	v.SetDefault("catalog.supplement_path", "")

	v.SetDefault("matching.min_score", 0.30)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("history.max_sessions", 1024)
	v.SetDefault("history.max_exchanges", 8)

	v.SetDefault("ratelimit.per_ip", 20)
	v.SetDefault("ratelimit.burst", 40)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set RUNOVA_OPENAI_API_KEY)")
	}

	if config.Matching.MinScore < 0 || config.Matching.MinScore > 1 {
		return fmt.Errorf("matching min score must be in [0,1], got: %v", config.Matching.MinScore)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per IP must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
