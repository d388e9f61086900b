package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration for both the server and the console.
// Every field maps 1:1 to an environment variable.
type Config struct {
	Env     string `mapstructure:"APP_ENV"` // development | production
	LogFile string `mapstructure:"LOG_FILE"`

	// Server
	Storage  string `mapstructure:"STORAGE"` // mysql | memory
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	MySQLDSN string `mapstructure:"MYSQL_DSN"`
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	JWTAccessMinutes  int    `mapstructure:"JWT_ACCESS_MINUTES"`
	JWTRefreshHours   int    `mapstructure:"JWT_REFRESH_HOURS"`
	AdminUsername     string `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`

	// Console
	APIURL            string `mapstructure:"API_URL"`
	APITimeoutSeconds int    `mapstructure:"API_TIMEOUT_SECONDS"`
	StateFile         string `mapstructure:"STATE_FILE"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("STORAGE", "mysql")
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/inventory?parseTime=true")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ACCESS_MINUTES", 60)
	v.SetDefault("JWT_REFRESH_HOURS", 24)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("API_URL", "http://localhost:8000/api")
	v.SetDefault("API_TIMEOUT_SECONDS", 15)
	v.SetDefault("STATE_FILE", "inventoryctl.db")

	// Optional .env file for local development, ignored when missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshHours) * time.Hour
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}
