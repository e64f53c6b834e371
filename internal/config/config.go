// Package config manages application configuration from default values,
// config.yaml, and BOT_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// config.yaml or environment variables prefixed with BOT_
// (e.g. BOT_TELEGRAM_TOKEN).
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Indexer   IndexerConfig   `mapstructure:"indexer"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig holds bot credentials and runtime identity. BotInfo is
// populated at startup from GetMe, not from the config file.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	BotInfo *models.User `mapstructure:"-"`
}

// IndexerConfig locates the per-language corpus files.
type IndexerConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// TaskConfig enables and schedules one background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds the user-facing reply templates.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	UserNotFound  string `mapstructure:"user_not_found" validate:"required"`
	EmptyChat     string `mapstructure:"empty_chat"     validate:"required"`
	GeneralError  string `mapstructure:"general_error"  validate:"required"`
}

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow missing config file; defaults and env cover everything optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.json", true)

	viper.SetDefault("database.path", "storage.db")

	viper.SetDefault("indexer.dir", "./messages")

	viper.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"language_index":  {Enabled: true, Schedule: "0 * * * *"},
		"sql_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
	})

	viper.SetDefault("messages.welcome", "Hello! I log group messages and answer /count, /stats, /top and /languages.")
	viper.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	viper.SetDefault("messages.user_not_found", "No user with that name has posted in this chat.")
	viper.SetDefault("messages.empty_chat", "No messages recorded for this chat yet.")
	viper.SetDefault("messages.general_error", "An error occurred. Please try again later.")
}
