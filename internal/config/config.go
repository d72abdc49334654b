// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config is everything the binaries read from the environment. Each cmd
// imports godotenv/autoload, so a .env file in the working directory is
// merged in first.
type Config struct {
	Port string

	PostgresUser     string
	PostgresPassword string
	PGHost           string
	PGPort           string
	PGDatabase       string

	RedisAddr          string
	RedisDB            int
	HistorianQueue     string
	HistorianBatchSize int
	HistorianFlush     time.Duration
	AbandonAfter       time.Duration

	TokenExpire string

	BattleDelay   time.Duration
	CleanupDelay  time.Duration
	CPUThinkDelay time.Duration

	LogLevel logrus.Level

	WSRatePerSec float64
	WSRateBurst  int

	// AllowedOrigins restricts CORS; empty allows any http(s) origin.
	AllowedOrigins []string
}

// Load reads the configuration. Unparseable values fall back to their
// defaults, except LOG_LEVEL which is reported.
func Load() (Config, error) {
	c := Config{
		Port:               GetEnv("PORT", "8080"),
		PostgresUser:       os.Getenv("POSTGRES_USER"),
		PostgresPassword:   os.Getenv("POSTGRES_PASSWORD"),
		PGHost:             GetEnv("PG_HOST", "localhost"),
		PGPort:             GetEnv("PG_PORT", "5432"),
		PGDatabase:         GetEnv("PG_DATABASE", "bloodrecall"),
		RedisAddr:          GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            GetEnvInt("REDIS_DB", 0),
		HistorianQueue:     GetEnv("HISTORIAN_QUEUE_NAME", "bloodrecall_actions"),
		HistorianBatchSize: GetEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(GetEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		AbandonAfter:       GetEnvDuration("MATCH_ABANDON_AFTER", 30*time.Minute),
		TokenExpire:        GetEnv("TOKEN_EXPIRE_TIME", "never"),
		BattleDelay:        GetEnvDuration("BATTLE_DELAY", 2*time.Second),
		CleanupDelay:       GetEnvDuration("CLEANUP_DELAY", 2*time.Second),
		CPUThinkDelay:      GetEnvDuration("CPU_THINK_DELAY", 1500*time.Millisecond),
		WSRatePerSec:       GetEnvFloat("WS_RATE_PER_SEC", 10),
		WSRateBurst:        GetEnvInt("WS_RATE_BURST", 10),
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	lvl, err := logrus.ParseLevel(GetEnv("LOG_LEVEL", "debug"))
	if err != nil {
		return c, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	c.LogLevel = lvl

	if c.HistorianBatchSize <= 0 {
		return c, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", c.HistorianBatchSize)
	}
	return c, nil
}

// PostgresURL builds the pgx connection string.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// NewLogger returns a text logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// GetEnv reads an environment variable or returns def.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses an environment variable as an integer, else def.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// GetEnvFloat parses an environment variable as a float, else def.
func GetEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// GetEnvDuration parses a Go duration ("2s", "1500ms"), else def.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
