package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Grammar  GrammarConfig  `mapstructure:"grammar"`
	Content  ContentConfig  `mapstructure:"content"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPort int    `mapstructure:"http_port"`
}

// DatabaseConfig holds local progress cache configuration. The sqlite3
// driver uses Path; the postgres driver uses the remaining fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RemoteConfig holds the best-effort progress mirror configuration. An
// empty BaseURL disables mirroring entirely.
type RemoteConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// GrammarConfig selects and tunes the grammar checking backend.
type GrammarConfig struct {
	Backend     string        `mapstructure:"backend"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// ContentConfig points at the static vocabulary content.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

// ReminderConfig tunes the due-review reminder scanner.
type ReminderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Interval      time.Duration `mapstructure:"interval"`
	WakingStart   int           `mapstructure:"waking_start"`
	WakingEnd     int           `mapstructure:"waking_end"`
	TelegramToken string        `mapstructure:"telegram_token"`
	TelegramChat  int64         `mapstructure:"telegram_chat"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	// A local .env is optional; when present its variables feed viper's
	// environment lookup below.
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", "vocadrill.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vocadrill")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	// Remote mirror defaults
	viper.SetDefault("remote.base_url", "")
	viper.SetDefault("remote.timeout", 10*time.Second)
	viper.SetDefault("remote.debounce", 2*time.Second)

	// Grammar backend defaults
	viper.SetDefault("grammar.backend", "ollama")
	viper.SetDefault("grammar.base_url", "")
	viper.SetDefault("grammar.model", "")
	viper.SetDefault("grammar.timeout", 2*time.Minute)
	viper.SetDefault("grammar.max_attempts", 3)

	// Content defaults
	viper.SetDefault("content.dir", "content/topics")

	// Reminder defaults
	viper.SetDefault("reminder.enabled", false)
	viper.SetDefault("reminder.interval", time.Hour)
	viper.SetDefault("reminder.waking_start", 8)
	viper.SetDefault("reminder.waking_end", 22)
}

// DatabaseDriver returns the configured local cache driver.
func (c *Config) DatabaseDriver() string {
	if c.Database.Driver == "" {
		return "sqlite3"
	}
	return c.Database.Driver
}

// DatabaseURL returns the connection string for the configured driver.
func (c *Config) DatabaseURL() string {
	if c.DatabaseDriver() == "sqlite3" {
		return c.Database.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
