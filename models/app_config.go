package models

import "time"

// AppConfig is the typed view of the merged viper configuration.
type AppConfig struct {
	BotToken string         `mapstructure:"bot_token"`
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Settings SettingsConfig `mapstructure:"settings"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Log      LogConfig      `mapstructure:"log"`
	Commands CommandsConfig `mapstructure:"commands"`
}

type BotConfig struct {
	Prefix            string `mapstructure:"prefix"`
	AdminChannelID    string `mapstructure:"adminchannelid"`
	MessageCacheLimit int    `mapstructure:"messagecachelimit"`
	SyncAtStartup     bool   `mapstructure:"syncatstartup"`
}

type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"` // sqlite3 or postgres
	DSN            string        `mapstructure:"dsn"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	HealthAttempts int           `mapstructure:"health_attempts"`
	HealthBackoff  time.Duration `mapstructure:"health_backoff"`
}

type SyncConfig struct {
	Schedule   string   `mapstructure:"schedule"` // cron spec
	StatusFile string   `mapstructure:"status_file"`
	TestGuilds []string `mapstructure:"test_guilds"`
}

// SettingsConfig holds the toggles written for a guild seen for the first time.
type SettingsConfig struct {
	Defaults SettingsDefaults `mapstructure:"defaults"`
}

type SettingsDefaults struct {
	Admin      bool `mapstructure:"admin"`
	Logging    bool `mapstructure:"logging"`
	Moderation bool `mapstructure:"moderation"`
	AntiSpam   bool `mapstructure:"antispam"`
	Fun        bool `mapstructure:"fun"`
}

type GRPCConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CommandsConfig is the `commands` block used by utils.Auth.
type CommandsConfig struct {
	Auth AuthConfig `mapstructure:"auth"`
}

type AuthConfig struct {
	Developers  []string `mapstructure:"developers"`
	AdminsRoles []string `mapstructure:"adminsroles"`
}
