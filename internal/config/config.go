package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Tracing  TracingConfig
	LogLevel string
}

type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Driver string

	// Path is the database file for the sqlite3 driver. It may also be a
	// full file: DSN, in which case it is used verbatim.
	Path string

	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int

	ReadReplicas []ReplicaConfig
}

type ReplicaConfig struct {
	Host   string
	Port   string
	Weight int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type TracingConfig struct {
	ServiceName string
	Endpoint    string
}

// Load reads configuration from the environment. A .env file is applied
// first when present; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_TIMEOUT", "30s")
	viper.SetDefault("DB_DRIVER", "sqlite3")
	viper.SetDefault("DB_PATH", "userflow.db")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SERVICE_NAME", "userflow")
	viper.SetDefault("LOG_LEVEL", "info")

	var cfg Config

	cfg.AppEnv = viper.GetString("APP_ENV")
	cfg.Server.Port = viper.GetString("SERVER_PORT")
	cfg.Server.Timeout = viper.GetDuration("SERVER_TIMEOUT")

	cfg.Database.Driver = viper.GetString("DB_DRIVER")
	cfg.Database.Path = viper.GetString("DB_PATH")
	cfg.Database.Host = viper.GetString("DB_HOST")
	cfg.Database.Port = viper.GetString("DB_PORT")
	cfg.Database.User = viper.GetString("DB_USER")
	cfg.Database.Password = viper.GetString("DB_PASSWORD")
	cfg.Database.Name = viper.GetString("DB_NAME")
	cfg.Database.SSLMode = viper.GetString("DB_SSL_MODE")
	cfg.Database.MaxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = viper.GetInt("DB_CONN_MAX_LIFETIME")
	cfg.Database.ReadReplicas = parseReplicas(viper.GetString("DB_READ_REPLICAS"))

	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")
	cfg.Redis.Password = viper.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = viper.GetInt("REDIS_DB")

	cfg.Tracing.ServiceName = viper.GetString("SERVICE_NAME")
	cfg.Tracing.Endpoint = viper.GetString("TRACING_ENDPOINT")

	cfg.LogLevel = viper.GetString("LOG_LEVEL")

	switch cfg.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("desteklenmeyen veritabanı sürücüsü: %s", cfg.Database.Driver)
	}

	return &cfg, nil
}

// parseReplicas parses the DB_READ_REPLICAS value, a comma separated list of
// host:port:weight entries. Weight is optional and defaults to 1.
func parseReplicas(raw string) []ReplicaConfig {
	if raw == "" {
		return nil
	}

	var replicas []ReplicaConfig

	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}

		weight := 1
		if len(parts) >= 3 {
			if w, err := strconv.Atoi(parts[2]); err == nil && w > 0 {
				weight = w
			}
		}

		replicas = append(replicas, ReplicaConfig{
			Host:   parts[0],
			Port:   parts[1],
			Weight: weight,
		})
	}

	return replicas
}
