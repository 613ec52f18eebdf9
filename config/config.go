package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Driver     string  `mapstructure:"driver"`
	Host       string  `mapstructure:"host"`
	Port       int     `mapstructure:"port"`
	DBName     string  `mapstructure:"dbname"`
	UserDB     string  `mapstructure:"userdb"`
	PasswordDB string  `mapstructure:"passworddb"`
	SQLitePath string  `mapstructure:"sqlite_path"`
	Admins     []int64 `mapstructure:"admins"`
	TgApiToken string  `mapstructure:"tg_api_token"`
	HTTPAddr   string  `mapstructure:"http_addr"`
	Timezone   string  `mapstructure:"timezone"`
	LogLevel   string  `mapstructure:"log_level"`

	DeadlineLead time.Duration `mapstructure:"deadline_lead"`
	LiveWindow   time.Duration `mapstructure:"live_window"`
}

const envPrefix = "PREDICTOR"

// InitConfig reads ./config/config.yaml, then environment overrides.
func InitConfig() (*Config, error) {
	return Load("./config")
}

func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("driver", "postgres")
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 5432)
	v.SetDefault("dbname", "predictor")
	v.SetDefault("userdb", "postgres")
	v.SetDefault("passworddb", "")
	v.SetDefault("sqlite_path", "predictor.db")
	v.SetDefault("admins", []int64{})
	v.SetDefault("tg_api_token", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("timezone", "Africa/Cairo")
	v.SetDefault("log_level", "info")
	v.SetDefault("deadline_lead", "2h")
	v.SetDefault("live_window", "3h")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("init config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone: %w", err)
	}
	if c.DeadlineLead < 0 {
		return fmt.Errorf("config: deadline_lead must not be negative")
	}
	if c.LiveWindow <= 0 {
		return fmt.Errorf("config: live_window must be positive")
	}
	return nil
}

// DSN is the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		c.Host, c.UserDB, c.PasswordDB, c.DBName, c.Port)
}

func (c *Config) IsAdmin(chatID int64) bool {
	for _, admin := range c.Admins {
		if admin == chatID {
			return true
		}
	}
	return false
}
