// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dealwatch/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TELEGRAM_BOT_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so
// tests running from package directories pick it up too.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills credentials from plain env vars when the YAML
// left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Telegram.BotToken == "" {
		if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
			cfg.Telegram.BotToken = val
		}
	}
	if cfg.Telegram.ChatID == "" {
		if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
			cfg.Telegram.ChatID = val
		}
	}
	if cfg.Notifications.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Notifications.AWS.Region = val
		}
	}
	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.HealthKart.BaseURL == "" {
		cfg.HealthKart.BaseURL = "https://www.healthkart.com/veronica/catalog"
	}
	if cfg.HealthKart.PageSize == 0 {
		cfg.HealthKart.PageSize = 24
	}
	if cfg.HealthKart.RequestDelay == 0 {
		cfg.HealthKart.RequestDelay = 1000
	}
	if cfg.HealthKart.RequestTimeout == 0 {
		cfg.HealthKart.RequestTimeout = 30000
	}
	if cfg.HealthKart.MaxRetries == 0 {
		cfg.HealthKart.MaxRetries = 3
	}
	if cfg.HealthKart.RetryDelay == 0 {
		cfg.HealthKart.RetryDelay = 1000
	}

	if cfg.Alerts.MinDiscount == 0 {
		cfg.Alerts.MinDiscount = 40
	}
	if cfg.Alerts.MaxDealsSent == 0 {
		cfg.Alerts.MaxDealsSent = 5
	}

	if cfg.Telegram.MaxRetries == 0 {
		cfg.Telegram.MaxRetries = 3
	}
	if cfg.Telegram.RetryDelay == 0 {
		cfg.Telegram.RetryDelay = 1000
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 60
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if len(cfg.Alerts.Categories) == 0 {
		return errors.NewConfigInvalidError("alerts.categories is required")
	}
	if cfg.Telegram.BotToken == "" {
		return errors.NewConfigInvalidError("telegram.bot_token is required")
	}
	if cfg.Telegram.ChatID == "" {
		return errors.NewConfigInvalidError("telegram.chat_id is required")
	}
	if cfg.Alerts.MinDiscount < 0 || cfg.Alerts.MinDiscount > 100 {
		return errors.NewConfigInvalidError("alerts.min_discount must be within [0,100]")
	}
	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		return errors.NewConfigInvalidError("redis.address is required when redis is enabled")
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return errors.NewConfigInvalidError("notifications.email.from_email is required when email is enabled")
	}
	return nil
}
