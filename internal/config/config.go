package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Notification transports.
const (
	TransportKafka = "kafka"
	TransportSMTP  = "smtp"
	TransportLog   = "log"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort      string
	LogLevel      string
	DatabaseURL   string
	DBPoolSize    int
	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds

	KafkaBrokers     []string
	KafkaNotifyTopic string
	KafkaPartitions  int
	KafkaGroupID     string

	JWTSecret      string
	AccessTokenTTL time.Duration

	SweepSchedule string
	SweepWindow   time.Duration

	NotifyTransport string
	NotifyTimezone  string
	EmailHost       string
	EmailPort       int
	EmailUser       string
	EmailPass       string
	EmailFrom       string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = Load()
	})
	return cfg
}

// Load reads the configuration from the current environment.
func Load() *Config {
	c := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBPoolSize:    getIntEnv("DB_POOL_SIZE", 20),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:      getIntEnv("CACHE_TTL_SEC", 300),

		KafkaBrokers:     getSliceEnv("KAFKA_BROKERS"),
		KafkaNotifyTopic: getEnv("KAFKA_NOTIFY_TOPIC", "task-due-notices"),
		KafkaPartitions:  getIntEnv("KAFKA_PARTITIONS", 4),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "due-notice-mailers"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 7*24*time.Hour),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 * * * *"),
		SweepWindow:   getDurationEnv("SWEEP_WINDOW", time.Hour),

		NotifyTimezone: getEnv("NOTIFY_TIMEZONE", "Africa/Lagos"),
		EmailHost:      os.Getenv("EMAIL_HOST"),
		EmailPort:      getIntEnv("EMAIL_PORT", 587),
		EmailUser:      os.Getenv("EMAIL_USER"),
		EmailPass:      os.Getenv("EMAIL_PASS"),
		EmailFrom:      os.Getenv("EMAIL_FROM"),
	}
	if c.EmailFrom == "" && c.EmailUser != "" {
		c.EmailFrom = c.EmailUser
	}
	c.NotifyTransport = strings.ToLower(getEnv("NOTIFY_TRANSPORT", c.defaultTransport()))
	return c
}

// defaultTransport prefers Kafka when brokers are configured, then SMTP, then logging only.
func (c *Config) defaultTransport() string {
	switch {
	case len(c.KafkaBrokers) > 0:
		return TransportKafka
	case c.EmailHost != "":
		return TransportSMTP
	default:
		return TransportLog
	}
}

// Location resolves NotifyTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.NotifyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
