package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env        string
	Server     ServerConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Log        LogConfig
	Migrations MigrationConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL            string
	Host           string
	Port           string
	Username       string
	Password       string
	Database       string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RedisConfig enables the listing cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type LogConfig struct {
	Dir   string
	Level string
}

type MigrationConfig struct {
	AutoMigrate bool
	// Dir points at *.sql files on disk; empty means the embedded set.
	Dir string
}

func Load() *Config {
	env := getEnv("APP_ENV", "development")

	return &Config{
		Env: env,
		Server: ServerConfig{
			Port:           getEnv("PORT", ":3001"),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Username:       getEnv("DB_USERNAME", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Database:       getEnv("DB_NAME", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", defaultSSLMode(env)),
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:   getEnvInt("DB_MAX_IDLE_CONNS", 10),
			IdleTimeout:    time.Duration(getEnvInt("DB_IDLE_TIMEOUT_SECONDS", 30)) * time.Second,
			ConnectTimeout: time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 2)) * time.Second,
			QueryTimeout:   time.Duration(getEnvInt("DB_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_EVENTS", "calendar.events"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Migrations: MigrationConfig{
			AutoMigrate: getEnvBool("AUTO_MIGRATE", true),
			Dir:         os.Getenv("MIGRATIONS_DIR"),
		},
	}
}

// Production reports whether APP_ENV selects production behavior.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Warnings lists settings that are unsafe for the current environment.
func (c *Config) Warnings() []string {
	var out []string
	if c.Production() {
		if c.Database.SSLMode == "disable" {
			out = append(out, "DB_SSLMODE=disable in production: database traffic is unencrypted")
		}
		if !c.Kafka.Enabled {
			out = append(out, "KAFKA_ENABLED is off in production: no change feed is published")
		}
	}
	return out
}

func defaultSSLMode(env string) string {
	if env == "production" {
		return "require"
	}
	return "disable"
}

// DSN returns the lib/pq connection string. DATABASE_URL wins over the
// individual DB_* settings; sslmode and connect_timeout are added when absent.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL == "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			dsnValue(d.Host), dsnValue(d.Port), dsnValue(d.Username), dsnValue(d.Password),
			dsnValue(d.Database), dsnValue(d.SSLMode), d.connectTimeoutSeconds()), nil
	}

	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DATABASE_URL scheme %q", u.Scheme)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", d.SSLMode)
	}
	if q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", strconv.Itoa(d.connectTimeoutSeconds()))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redacted is DSN with the password masked, for logs.
func (d DatabaseConfig) Redacted() string {
	if d.URL != "" {
		if u, err := url.Parse(d.URL); err == nil {
			return u.Redacted()
		}
		return "postgres://<invalid>"
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", d.Host, d.Port, d.Username, d.Database, d.SSLMode)
}

// dsnValue quotes v for a keyword/value connection string when it is empty or
// holds whitespace, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func (d DatabaseConfig) connectTimeoutSeconds() int {
	s := int(d.ConnectTimeout / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
