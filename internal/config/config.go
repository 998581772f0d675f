package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Telegram TelegramConfig
	Slack    SlackConfig
	Oracle   OracleConfig
	GitHub   GitHubConfig
	Review   ReviewConfig
	Client   ClientConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Redis is optional; an empty
// Addr disables the dedup index and the live feed fan-out.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// TelegramConfig holds Telegram bot settings. An empty BotToken disables the
// chat listener.
type TelegramConfig struct {
	BotToken     string
	ReviewChatID string
	PollTimeout  time.Duration
}

// SlackConfig holds Slack delivery settings for review notifications. An
// empty BotToken disables the Slack messenger.
type SlackConfig struct {
	BotToken      string
	ReviewChannel string
}

// OracleConfig holds text-oracle settings. An empty APIKey disables
// inference; the ingestion pipeline then always uses the regex fallback.
type OracleConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GitHubConfig holds external-platform sync settings. Empty Token or
// Username disables the GitHub connector.
type GitHubConfig struct {
	Token        string
	Username     string
	Repos        []string // "owner/name" entries
	PageSize     int
	SyncInterval time.Duration
	Lookback     time.Duration
}

// ReviewConfig holds daily-review scheduling settings.
type ReviewConfig struct {
	Enabled bool
	At      string // "HH:MM", local time
}

// ClientConfig holds settings for the CLI client commands.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables. Defaults are safe
// for local development only.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("DAYLOG_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("DAYLOG_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("DAYLOG_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("DAYLOG_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("DAYLOG_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pollTimeout, err := getEnvDuration("DAYLOG_TELEGRAM_POLL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	oracleTimeout, err := getEnvDuration("DAYLOG_ORACLE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	ghPageSize, err := getEnvInt("DAYLOG_GITHUB_PAGE_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	ghInterval, err := getEnvDuration("DAYLOG_GITHUB_SYNC_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	ghLookback, err := getEnvDuration("DAYLOG_GITHUB_LOOKBACK", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reviewEnabled, err := getEnvBool("DAYLOG_REVIEW_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	clientTimeout, err := getEnvDuration("DAYLOG_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DAYLOG_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DAYLOG_DB_USER", "daylog"),
			Password: getEnv("DAYLOG_DB_PASSWORD", ""),
			DBName:   getEnv("DAYLOG_DB_NAME", "daylog_dev"),
			SSLMode:  getEnv("DAYLOG_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("DAYLOG_REDIS_ADDR", ""),
			Password: getEnv("DAYLOG_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:         getEnv("DAYLOG_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("DAYLOG_CORS_ORIGINS", []string{"http://localhost:5173"}),
		},
		Telegram: TelegramConfig{
			BotToken:     getEnv("DAYLOG_TELEGRAM_TOKEN", ""),
			ReviewChatID: getEnv("DAYLOG_TELEGRAM_CHAT_ID", ""),
			PollTimeout:  pollTimeout,
		},
		Slack: SlackConfig{
			BotToken:      getEnv("DAYLOG_SLACK_BOT_TOKEN", ""),
			ReviewChannel: getEnv("DAYLOG_SLACK_REVIEW_CHANNEL", ""),
		},
		Oracle: OracleConfig{
			APIKey:  getEnv("DAYLOG_OPENAI_API_KEY", ""),
			Model:   getEnv("DAYLOG_OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("DAYLOG_OPENAI_BASE_URL", ""),
			Timeout: oracleTimeout,
		},
		GitHub: GitHubConfig{
			Token:        getEnv("DAYLOG_GITHUB_TOKEN", ""),
			Username:     getEnv("DAYLOG_GITHUB_USERNAME", ""),
			Repos:        getEnvList("DAYLOG_GITHUB_REPOS", nil),
			PageSize:     ghPageSize,
			SyncInterval: ghInterval,
			Lookback:     ghLookback,
		},
		Review: ReviewConfig{
			Enabled: reviewEnabled,
			At:      getEnv("DAYLOG_REVIEW_TIME", "22:00"),
		},
		Client: ClientConfig{
			BaseURL: getEnv("DAYLOG_API_URL", "http://localhost:8080"),
			Timeout: clientTimeout,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds. Missing integration credentials are not
// errors here: each connector is disabled individually with a logged
// warning so one unconfigured channel never takes down the process.
func (c *Config) validate() error {
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DAYLOG_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DAYLOG_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("DAYLOG_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("DAYLOG_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.GitHub.PageSize < 1 || c.GitHub.PageSize > 100 {
		return fmt.Errorf("DAYLOG_GITHUB_PAGE_SIZE must be 1-100, got %d", c.GitHub.PageSize)
	}
	if c.GitHub.SyncInterval <= 0 {
		return fmt.Errorf("DAYLOG_GITHUB_SYNC_INTERVAL must be positive, got %s", c.GitHub.SyncInterval)
	}
	if c.GitHub.Lookback <= 0 {
		return fmt.Errorf("DAYLOG_GITHUB_LOOKBACK must be positive, got %s", c.GitHub.Lookback)
	}
	if _, _, err := ParseTimeOfDay(c.Review.At); err != nil {
		return fmt.Errorf("DAYLOG_REVIEW_TIME: %w", err)
	}

	if c.GitHub.Token != "" && c.GitHub.Username == "" {
		log.Warn().Msg("DAYLOG_GITHUB_TOKEN set without DAYLOG_GITHUB_USERNAME; GitHub sync stays disabled")
	}

	return nil
}

// GitHubEnabled reports whether the GitHub connector has enough
// configuration to run.
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.Token != "" && c.GitHub.Username != ""
}

// TelegramEnabled reports whether the Telegram listener can start.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// ParseTimeOfDay parses "HH:MM" into hour and minute components.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("expected HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute %q", parts[1])
	}
	return hour, minute, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
