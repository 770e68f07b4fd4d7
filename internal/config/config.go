package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения
type Config struct {
	Broker   BrokerConfig
	Dispatch DispatchConfig
	Slack    SlackConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	API      APIConfig
	Storage  StorageConfig
	Policy   PolicyConfig
	LogLevel string
	LogDir   string
}

type BrokerConfig struct {
	BridgeURL   string
	CallTimeout time.Duration
	// Account переопределяет первый счет из ACCNO
	Account    string
	ClockTick  bool
	ClockEvery time.Duration
}

type DispatchConfig struct {
	Interval time.Duration
}

type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
	PerMinute  int
}

type TelegramConfig struct {
	BotToken  string
	ChatID    int64
	AdminIDs  string
	Whitelist string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type APIConfig struct {
	Port int
}

type StorageConfig struct {
	StockListPath string
	SchedulePath  string
}

// PolicyConfig риск-профиль для проверки заявок на покупку
type PolicyConfig struct {
	Path    string
	Profile string
}

// Load загружает конфигурацию из .env файла
func Load() (*Config, error) {
	// Загружаем .env файл (если есть)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}
	return FromEnv()
}

// FromEnv собирает конфигурацию из переменных окружения
func FromEnv() (*Config, error) {
	callTimeout, err := time.ParseDuration(getEnv("BRIDGE_CALL_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BRIDGE_CALL_TIMEOUT: %w", err)
	}

	clockTick, err := strconv.ParseBool(getEnv("CLOCK_TICK", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_TICK: %w", err)
	}

	clockEvery, err := time.ParseDuration(getEnv("CLOCK_TICK_INTERVAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_TICK_INTERVAL: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("DISPATCH_INTERVAL", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_INTERVAL: %w", err)
	}

	slackTimeout, err := time.ParseDuration(getEnv("SLACK_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLACK_TIMEOUT: %w", err)
	}

	slackPerMinute, err := strconv.Atoi(getEnv("SLACK_PER_MINUTE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid SLACK_PER_MINUTE: %w", err)
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	dbEnabled, err := strconv.ParseBool(getEnv("DB_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_ENABLED: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	config := &Config{
		Broker: BrokerConfig{
			BridgeURL:   getEnv("BRIDGE_URL", "ws://127.0.0.1:8765/ws"),
			CallTimeout: callTimeout,
			Account:     getEnv("ACCOUNT", ""),
			ClockTick:   clockTick,
			ClockEvery:  clockEvery,
		},
		Dispatch: DispatchConfig{
			Interval: interval,
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			Timeout:    slackTimeout,
			PerMinute:  slackPerMinute,
		},
		Telegram: TelegramConfig{
			BotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:    chatID,
			AdminIDs:  getEnv("TELEGRAM_ADMIN_IDS", ""),
			Whitelist: getEnv("TELEGRAM_WHITELIST", ""),
		},
		Database: DatabaseConfig{
			Enabled:         dbEnabled,
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "sns_trade_bot"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Storage: StorageConfig{
			StockListPath: getEnv("STOCK_LIST_PATH", "stock_list.json"),
			SchedulePath:  getEnv("SCHEDULE_PATH", "schedule.yaml"),
		},
		Policy: PolicyConfig{
			Path:    getEnv("POLICY_PATH", "policy.yaml"),
			Profile: getEnv("POLICY_PROFILE", "moderate"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogDir:   getEnv("LOG_DIR", "log"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет обязательные поля конфигурации
func (c *Config) Validate() error {
	if c.Broker.BridgeURL == "" {
		return fmt.Errorf("BRIDGE_URL is required")
	}
	if c.Dispatch.Interval <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL must be positive")
	}
	if c.Broker.ClockTick && c.Broker.ClockEvery <= 0 {
		return fmt.Errorf("CLOCK_TICK_INTERVAL must be positive")
	}
	if c.Slack.PerMinute <= 0 {
		return fmt.Errorf("SLACK_PER_MINUTE must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.Database.Enabled && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Storage.StockListPath == "" {
		return fmt.Errorf("STOCK_LIST_PATH is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
