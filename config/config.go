package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"guild-mirror/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// setDefaults registers every key the bot reads. Registering a default also
// makes the key visible to AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.prefix", "!")
	v.SetDefault("bot.adminChannelId", "")
	v.SetDefault("bot.messageCacheLimit", 100)
	v.SetDefault("bot.syncAtStartup", true)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "./data/mirror.db")
	v.SetDefault("database.query_timeout", 5*time.Second)
	v.SetDefault("database.health_attempts", 5)
	v.SetDefault("database.health_backoff", 10*time.Second)

	v.SetDefault("sync.schedule", "@hourly")
	v.SetDefault("sync.status_file", "./data/sync_status.json")
	v.SetDefault("sync.test_guilds", []string{})

	v.SetDefault("settings.defaults.admin", true)
	v.SetDefault("settings.defaults.logging", true)
	v.SetDefault("settings.defaults.moderation", true)
	v.SetDefault("settings.defaults.antispam", true)
	v.SetDefault("settings.defaults.fun", true)

	v.SetDefault("grpc.listen_addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig 从多个源加载配置：.env 文件、config.yaml、以及 ./config/sync.json。
// 配置加载顺序:
// 1. .env 文件 (用于环境变量)
// 2. config.yaml (基础配置)
// 3. config/sync.json (合并到主配置)
// 环境变量会覆盖配置文件中的同名设置。
func LoadConfig(v *viper.Viper) error {
	// 1. 从 .env 文件加载环境变量，如果文件不存在则忽略。
	if err := godotenv.Load(); err != nil {
		log.Printf("未找到 .env 文件，将跳过加载。")
	}

	setDefaults(v)
	v.AutomaticEnv()                                   // 自动读取匹配的环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将配置键中的'.'替换为'_'以匹配环境变量
	if err := v.BindEnv("bot_token", "BOT_TOKEN"); err != nil {
		return fmt.Errorf("绑定 BOT_TOKEN 失败: %w", err)
	}

	// 2. 设置并读取基础配置文件 (config.yaml)。
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("未找到基础配置文件 (config.yaml)，将仅使用环境变量和默认值。")
		} else {
			return fmt.Errorf("解析基础配置文件时发生致命错误: %w", err)
		}
	}

	// 3. 合并同步配置文件 (config/sync.json)。
	v.SetConfigName("sync")
	v.SetConfigType("json")
	v.AddConfigPath("./config")

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("未找到同步配置文件 (config/sync.json)，将跳过合并。")
		} else {
			return fmt.Errorf("合并同步配置文件时发生致命错误: %w", err)
		}
	}

	return nil
}

// Load reads every configuration source and returns the typed config.
func Load() (*models.AppConfig, error) {
	v := viper.GetViper()
	if err := LoadConfig(v); err != nil {
		return nil, err
	}
	return Parse(v)
}

// Parse unmarshals an already populated viper instance and validates it.
func Parse(v *viper.Viper) (*models.AppConfig, error) {
	var cfg models.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	switch cfg.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.HealthAttempts < 1 {
		return nil, fmt.Errorf("database.health_attempts must be at least 1")
	}
	return &cfg, nil
}
