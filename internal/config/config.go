package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string

	GradebookCacheTTL time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	ScorerModel   string
	ScorerTimeout time.Duration

	GradingSchedule  string
	GradingLookback  time.Duration
	GradingBatchSize int

	SeedSampleData bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional
// .env file. Missing storage or scorer credentials are fatal here, at
// startup, rather than a per-request concern.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("QUIZZER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Quizzer API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("gradebook.cache_ttl", "10m")
	v.SetDefault("scorer.model", "gpt-4o-mini")
	v.SetDefault("scorer.timeout", "60s")
	v.SetDefault("grading.schedule", "@every 2m")
	v.SetDefault("grading.lookback", "24h")
	v.SetDefault("grading.batch_size", 50)

	cacheTTL, err := time.ParseDuration(v.GetString("gradebook.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid gradebook cache ttl: %w", err)
	}

	scorerTimeout, err := time.ParseDuration(v.GetString("scorer.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scorer timeout: %w", err)
	}

	lookback, err := time.ParseDuration(v.GetString("grading.lookback"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid grading lookback: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		GradebookCacheTTL: cacheTTL,
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		ScorerModel:       v.GetString("scorer.model"),
		ScorerTimeout:     scorerTimeout,
		GradingSchedule:   v.GetString("grading.schedule"),
		GradingLookback:   lookback,
		GradingBatchSize:  v.GetInt("grading.batch_size"),
		SeedSampleData:    v.GetBool("seed.sample_data"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	if cfg.GradingBatchSize <= 0 {
		cfg.GradingBatchSize = 50
	}

	return cfg, nil
}
