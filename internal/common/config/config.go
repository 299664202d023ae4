// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	HealthKart    HealthKartConfig   `mapstructure:"healthkart"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Telegram      TelegramConfig     `mapstructure:"telegram"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// HealthKartConfig holds settings for the catalog API client.
type HealthKartConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	PageSize       int    `mapstructure:"page_size"`
	RequestDelay   int    `mapstructure:"request_delay"`   // milliseconds between requests
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds per request
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryDelay     int    `mapstructure:"retry_delay"` // milliseconds base backoff delay
	CacheTTL       int    `mapstructure:"cache_ttl"`   // seconds; 0 disables the page cache
}

// AlertsConfig holds the deal criteria and the categories to monitor.
type AlertsConfig struct {
	Categories   []string `mapstructure:"categories"`
	MinDiscount  float64  `mapstructure:"min_discount"`
	MaxPrice     float64  `mapstructure:"max_price"`
	MinRating    float64  `mapstructure:"min_rating"`
	MinReviews   int      `mapstructure:"min_reviews"`
	InStockOnly  bool     `mapstructure:"in_stock_only"`
	Brands       []string `mapstructure:"brands"`
	Flavors      []string `mapstructure:"flavors"`
	MaxDealsSent int      `mapstructure:"max_deals_sent"`
}

// TelegramConfig holds bot credentials and the destination chat.
type TelegramConfig struct {
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	MaxRetries int    `mapstructure:"max_retries"`
	RetryDelay int    `mapstructure:"retry_delay"` // milliseconds base backoff delay
	Timeout    int    `mapstructure:"timeout"`     // milliseconds per request
}

// NotificationConfig holds settings for the secondary channels.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled     bool    `mapstructure:"enabled"`
		PhoneNumber string  `mapstructure:"phone_number"`
		MinDiscount float64 `mapstructure:"min_discount"` // SMS only for deals at or above this
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SchedulerConfig holds the timer loop settings.
type SchedulerConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"` // minutes between runs
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
