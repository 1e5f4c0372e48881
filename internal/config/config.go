package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Bot      BotConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// BotConfig - настройки торгового ядра
type BotConfig struct {
	// Период тика торгового цикла одного ключа
	TickInterval time.Duration

	// Таймауты внешних вызовов (обязательны на каждом вызове)
	SnapshotTimeout time.Duration // запрос котировок одной биржи
	OrderTimeout    time.Duration // размещение рыночного ордера

	// Комиссия по умолчанию, когда биржа не сообщила fee
	DefaultFeeRate float64

	// Емкость тикового окна графика
	TickWindowSize int

	// Размер общего пула для блокирующих вызовов к биржам
	WorkerPoolSize int

	// DemoMode: все биржевые клиенты - эмуляторы со случайными котировками
	DemoMode bool
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "autofutures"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Bot: BotConfig{
			TickInterval:    getEnvAsDuration("TICK_INTERVAL", 1*time.Second),
			SnapshotTimeout: getEnvAsDuration("SNAPSHOT_TIMEOUT", 3*time.Second),
			OrderTimeout:    getEnvAsDuration("ORDER_TIMEOUT", 5*time.Second),
			DefaultFeeRate:  getEnvAsFloat("DEFAULT_FEE_RATE", 0.0005),
			TickWindowSize:  getEnvAsInt("TICK_WINDOW_SIZE", 200),
			WorkerPoolSize:  getEnvAsInt("WORKER_POOL_SIZE", 32),
			DemoMode:        getEnvAsBool("DEMO_MODE", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Bot.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %v", c.Bot.TickInterval)
	}

	if c.Bot.SnapshotTimeout <= 0 {
		return fmt.Errorf("SNAPSHOT_TIMEOUT must be positive, got %v", c.Bot.SnapshotTimeout)
	}

	if c.Bot.OrderTimeout <= 0 {
		return fmt.Errorf("ORDER_TIMEOUT must be positive, got %v", c.Bot.OrderTimeout)
	}

	if c.Bot.DefaultFeeRate < 0 || c.Bot.DefaultFeeRate > 0.01 {
		return fmt.Errorf("DEFAULT_FEE_RATE must be in [0, 0.01], got %f", c.Bot.DefaultFeeRate)
	}

	if c.Bot.TickWindowSize < 1 {
		return fmt.Errorf("TICK_WINDOW_SIZE must be at least 1, got %d", c.Bot.TickWindowSize)
	}

	if c.Bot.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be at least 1, got %d", c.Bot.WorkerPoolSize)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
