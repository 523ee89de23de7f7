// Package config loads application configuration from the environment, an
// optional .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Keyword    string
	Schedule   string
	Window     time.Duration
	RunOnStart bool
	LogLevel   string

	HN      HNConfig
	Acquire AcquireConfig
	Summary SummaryConfig
	AI      AIConfig
	Notify  NotifyConfig
	DB      DBConfig
	Server  ServerConfig
	S3      S3Config
}

// HNConfig points at the story search API and the discussion pages.
type HNConfig struct {
	Source        string // algolia or rss
	SearchBaseURL string
	FeedBaseURL   string
	PostBaseURL   string
}

// AcquireConfig selects how article text is fetched.
type AcquireConfig struct {
	Extractor      string // colly or service
	ServiceURL     string
	FallbackToPost bool
}

// SummaryConfig holds the token budgets and retry policy of the summarizer.
type SummaryConfig struct {
	SingleShotTokens  int
	ChunkTokens       int
	Retries           int
	MapConcurrency    int
	SmallContentWords int
	Structured        bool
	ModelSize         string
}

// AIConfig selects the completion provider.
type AIConfig struct {
	Provider      string
	OllamaHost    string
	OpenAIKey     string
	OpenAIBaseURL string
	AnthropicKey  string
	GeminiKey     string
	SmallModel    string
	LargeModel    string
}

// APIKey returns the key for the selected provider.
func (c AIConfig) APIKey() string {
	switch strings.ToLower(c.Provider) {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	}
	return ""
}

// BaseURL returns the endpoint override for the selected provider.
func (c AIConfig) BaseURL() string {
	switch strings.ToLower(c.Provider) {
	case "", "ollama":
		return c.OllamaHost
	case "openai":
		return c.OpenAIBaseURL
	}
	return ""
}

// NotifyConfig names the delivery channel and its credentials.
type NotifyConfig struct {
	Kind           string
	SlackWorkspace string
	SlackChannel   string
	SlackToken     string
	DiscordToken   string
	DiscordChannel string
	TelegramToken  string
	TelegramChatID string
}

// DBConfig holds PostgreSQL connection parameters. An empty Host disables
// the post archive.
type DBConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	DBName        string
	SSLMode       string
	MaxConns      int32
	MigrationsDir string
}

// Configured reports whether the archive database is enabled.
func (c DBConfig) Configured() bool {
	return c.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Pass +
		"@" + c.Host + ":" + strconv.Itoa(c.Port) +
		"/" + c.DBName + "?sslmode=" + c.SSLMode
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port           string
	Host           string
	AdminTokenHash string
	CORSOrigins    []string
}

// Addr returns the full listen address (host:port).
func (c ServerConfig) Addr() string {
	return c.Host + c.Port
}

// S3Config holds S3-compatible object storage parameters. An empty Endpoint
// disables evidence uploads.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

// Load reads .env (if present), then config.yaml (if present), then the
// environment. Environment variables win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config.yaml: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"KEYWORD":         "chatGPT",
		"SCHEDULE":        "25 * * * *",
		"LOOKBACK_WINDOW": time.Hour,
		"RUN_ON_START":    false,
		"LOG_LEVEL":       "info",

		"POLL_SOURCE":     "algolia",
		"SEARCH_BASE_URL": "https://hn.algolia.com",
		"FEED_BASE_URL":   "https://hnrss.org",
		"POST_BASE_URL":   "https://news.ycombinator.com",

		"EXTRACTOR":                "colly",
		"EXTRACTOR_SERVICE_URL":    "",
		"ACQUIRE_FALLBACK_TO_POST": true,

		"SINGLE_SHOT_TOKENS":  2800,
		"CHUNK_TOKENS":        2800,
		"COMPLETION_RETRIES":  3,
		"MAP_CONCURRENCY":     1,
		"SMALL_CONTENT_WORDS": 150,
		"STRUCTURED_OUTPUT":   false,
		"MODEL_SIZE":          "small",

		"COMPLETION_PROVIDER": "ollama",
		"OLLAMA_HOST":         "http://localhost:11434",
		"OPENAI_API_KEY":      "",
		"OPENAI_BASE_URL":     "",
		"ANTHROPIC_API_KEY":   "",
		"GEMINI_API_KEY":      "",
		"MODEL_SMALL":         "",
		"MODEL_LARGE":         "",

		"NOTIFIER":         "log",
		"SLACK_WORKSPACE":  "secondstate",
		"SLACK_CHANNEL":    "github-status",
		"SLACK_TOKEN":      "",
		"DISCORD_TOKEN":    "",
		"DISCORD_CHANNEL":  "",
		"TELEGRAM_TOKEN":   "",
		"TELEGRAM_CHAT_ID": "",

		"DB_HOST":           "",
		"DB_PORT":           5432,
		"DB_USER":           "hnbrief",
		"DB_PASS":           "hnbrief",
		"DB_NAME":           "hnbrief",
		"DB_SSLMODE":        "disable",
		"DB_MAX_CONNS":      4,
		"DB_MIGRATIONS_DIR": "migrations",

		"SERVER_PORT":      ":8080",
		"SERVER_HOST":      "",
		"ADMIN_TOKEN_HASH": "",
		"CORS_ORIGINS":     "*",

		"S3_ENDPOINT":   "",
		"S3_BUCKET":     "hnbrief-evidence",
		"S3_ACCESS_KEY": "",
		"S3_SECRET_KEY": "",
		"S3_REGION":     "us-east-1",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Keyword:    v.GetString("KEYWORD"),
		Schedule:   v.GetString("SCHEDULE"),
		Window:     v.GetDuration("LOOKBACK_WINDOW"),
		RunOnStart: v.GetBool("RUN_ON_START"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		HN: HNConfig{
			Source:        strings.ToLower(v.GetString("POLL_SOURCE")),
			SearchBaseURL: v.GetString("SEARCH_BASE_URL"),
			FeedBaseURL:   v.GetString("FEED_BASE_URL"),
			PostBaseURL:   v.GetString("POST_BASE_URL"),
		},
		Acquire: AcquireConfig{
			Extractor:      strings.ToLower(v.GetString("EXTRACTOR")),
			ServiceURL:     v.GetString("EXTRACTOR_SERVICE_URL"),
			FallbackToPost: v.GetBool("ACQUIRE_FALLBACK_TO_POST"),
		},
		Summary: SummaryConfig{
			SingleShotTokens:  v.GetInt("SINGLE_SHOT_TOKENS"),
			ChunkTokens:       v.GetInt("CHUNK_TOKENS"),
			Retries:           v.GetInt("COMPLETION_RETRIES"),
			MapConcurrency:    v.GetInt("MAP_CONCURRENCY"),
			SmallContentWords: v.GetInt("SMALL_CONTENT_WORDS"),
			Structured:        v.GetBool("STRUCTURED_OUTPUT"),
			ModelSize:         v.GetString("MODEL_SIZE"),
		},
		AI: AIConfig{
			Provider:      strings.ToLower(v.GetString("COMPLETION_PROVIDER")),
			OllamaHost:    v.GetString("OLLAMA_HOST"),
			OpenAIKey:     v.GetString("OPENAI_API_KEY"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			AnthropicKey:  v.GetString("ANTHROPIC_API_KEY"),
			GeminiKey:     v.GetString("GEMINI_API_KEY"),
			SmallModel:    v.GetString("MODEL_SMALL"),
			LargeModel:    v.GetString("MODEL_LARGE"),
		},
		Notify: NotifyConfig{
			Kind:           strings.ToLower(v.GetString("NOTIFIER")),
			SlackWorkspace: v.GetString("SLACK_WORKSPACE"),
			SlackChannel:   v.GetString("SLACK_CHANNEL"),
			SlackToken:     v.GetString("SLACK_TOKEN"),
			DiscordToken:   v.GetString("DISCORD_TOKEN"),
			DiscordChannel: v.GetString("DISCORD_CHANNEL"),
			TelegramToken:  v.GetString("TELEGRAM_TOKEN"),
			TelegramChatID: v.GetString("TELEGRAM_CHAT_ID"),
		},
		DB: DBConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetInt("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Pass:          v.GetString("DB_PASS"),
			DBName:        v.GetString("DB_NAME"),
			SSLMode:       v.GetString("DB_SSLMODE"),
			MaxConns:      v.GetInt32("DB_MAX_CONNS"),
			MigrationsDir: v.GetString("DB_MIGRATIONS_DIR"),
		},
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Host:           v.GetString("SERVER_HOST"),
			AdminTokenHash: v.GetString("ADMIN_TOKEN_HASH"),
			CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		},
		S3: S3Config{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			Bucket:    v.GetString("S3_BUCKET"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Region:    v.GetString("S3_REGION"),
		},
	}
}

// Validate rejects configurations the worker cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Keyword) == "" {
		errs = append(errs, errors.New("KEYWORD must not be empty"))
	}
	if c.Window < time.Minute {
		errs = append(errs, fmt.Errorf("LOOKBACK_WINDOW must be at least 1m, got %s", c.Window))
	}
	if c.Summary.SingleShotTokens <= 0 {
		errs = append(errs, errors.New("SINGLE_SHOT_TOKENS must be positive"))
	}
	if c.Summary.ChunkTokens <= 0 {
		errs = append(errs, errors.New("CHUNK_TOKENS must be positive"))
	}
	if c.Summary.Retries <= 0 {
		errs = append(errs, errors.New("COMPLETION_RETRIES must be positive"))
	}
	if c.Summary.MapConcurrency <= 0 {
		errs = append(errs, errors.New("MAP_CONCURRENCY must be positive"))
	}
	if c.HN.Source != "algolia" && c.HN.Source != "rss" {
		errs = append(errs, fmt.Errorf("POLL_SOURCE must be algolia or rss, got %q", c.HN.Source))
	}
	switch c.Acquire.Extractor {
	case "colly":
	case "service":
		if c.Acquire.ServiceURL == "" {
			errs = append(errs, errors.New("EXTRACTOR=service requires EXTRACTOR_SERVICE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("EXTRACTOR must be colly or service, got %q", c.Acquire.Extractor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
