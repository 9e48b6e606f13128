package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	LLM      LLMConfig      `yaml:"llm"`
	Sources  SourcesConfig  `yaml:"sources"`
	Quality  QualityConfig  `yaml:"quality"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"dbname"`
	SSLMode       string `yaml:"sslmode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the promotion announcement channel. An
// empty URL disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// LLMConfig configures the summarization collaborator. An empty Model
// disables enrichment.
type LLMConfig struct {
	Provider        string        `yaml:"provider"` // "openai" or "anthropic"
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MinContentWords int           `yaml:"min_content_words"`
}

type SourcesConfig struct {
	Devto   DevtoConfig   `yaml:"devto"`
	Medium  MediumConfig  `yaml:"medium"`
	Scholar ScholarConfig `yaml:"scholar"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type DevtoConfig struct {
	BaseURL string   `yaml:"base_url"`
	Tags    []string `yaml:"tags"`
	PerTag  int      `yaml:"per_tag"`
}

type MediumConfig struct {
	Feeds           map[string]string `yaml:"feeds"` // tag -> RSS URL
	PerFeed         int               `yaml:"per_feed"`
	MinContentWords int               `yaml:"min_content_words"`
}

type ScholarConfig struct {
	BaseURL   string `yaml:"base_url"`
	MaxPapers int    `yaml:"max_papers"`
	MaxTerms  int    `yaml:"max_terms"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type QualityConfig struct {
	MinTitleLen   int      `yaml:"min_title_len"`
	MinContentLen int      `yaml:"min_content_len"`
	SpamTokens    []string `yaml:"spam_tokens"`
}

type PipelineConfig struct {
	Interval    time.Duration `yaml:"interval"`
	RunTimeout  time.Duration `yaml:"run_timeout"`
	SkipEnrich  bool          `yaml:"skip_enrich"`
	SkipPromote bool          `yaml:"skip_promote"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "feedup"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "promotions"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "feedup_promotions"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.MaxAttempts == 0 {
		c.LLM.MaxAttempts = 3
	}
	if c.LLM.InitialBackoff == 0 {
		c.LLM.InitialBackoff = 2 * time.Second
	}
	if c.LLM.MaxBackoff == 0 {
		c.LLM.MaxBackoff = 30 * time.Second
	}
	if c.LLM.RequestTimeout == 0 {
		c.LLM.RequestTimeout = 60 * time.Second
	}
	if c.LLM.MinContentWords == 0 {
		c.LLM.MinContentWords = 100
	}
	if c.Sources.Devto.BaseURL == "" {
		c.Sources.Devto.BaseURL = "https://dev.to/api/articles"
	}
	if c.Sources.Devto.Tags == nil {
		c.Sources.Devto.Tags = []string{"flutter", "ai", "tools", "programming"}
	}
	if c.Sources.Devto.PerTag == 0 {
		c.Sources.Devto.PerTag = 5
	}
	if c.Sources.Medium.Feeds == nil {
		c.Sources.Medium.Feeds = map[string]string{
			"flutter":     "https://medium.com/feed/tag/flutter",
			"ai":          "https://medium.com/feed/tag/artificial-intelligence",
			"tools":       "https://medium.com/feed/tag/tools",
			"programming": "https://medium.com/feed/tag/programming",
		}
	}
	if c.Sources.Medium.PerFeed == 0 {
		c.Sources.Medium.PerFeed = 5
	}
	if c.Sources.Medium.MinContentWords == 0 {
		c.Sources.Medium.MinContentWords = 100
	}
	if c.Sources.Scholar.BaseURL == "" {
		c.Sources.Scholar.BaseURL = "https://api.semanticscholar.org/graph/v1"
	}
	if c.Sources.Scholar.MaxPapers == 0 {
		c.Sources.Scholar.MaxPapers = 20
	}
	if c.Sources.Scholar.MaxTerms == 0 {
		c.Sources.Scholar.MaxTerms = 6
	}
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = 10 * time.Second
	}
	if c.Sources.Retry.MaxAttempts == 0 {
		c.Sources.Retry.MaxAttempts = 3
	}
	if c.Sources.Retry.InitialBackoff == 0 {
		c.Sources.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Sources.Retry.MaxBackoff == 0 {
		c.Sources.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Quality.MinTitleLen == 0 {
		c.Quality.MinTitleLen = 15
	}
	if c.Quality.MinContentLen == 0 {
		c.Quality.MinContentLen = 30
	}
	if c.Quality.SpamTokens == nil {
		c.Quality.SpamTokens = []string{"buy", "cheap", "free download", "click here"}
	}
	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = 30 * time.Minute
	}
	if c.Pipeline.RunTimeout == 0 {
		c.Pipeline.RunTimeout = 10 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
