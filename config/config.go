package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig selects where seat and booking state lives: "postgres"
// (row-locked claims) or "memory" (per-flight mutex, single process).
type StorageConfig struct {
	Driver string `yaml:"driver"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers                  []string `yaml:"brokers"`
	BookingEventsTopic       string   `yaml:"booking_events_topic"`
	NotificationsTopic       string   `yaml:"notifications_topic"`
	GroupID                  string   `yaml:"group_id"`
	HeartbeatIntervalSeconds int      `yaml:"heartbeat_interval_seconds"`
	SessionTimeoutSeconds    int      `yaml:"session_timeout_seconds"`
}

func (k KafkaConfig) HeartbeatInterval() time.Duration {
	return time.Duration(k.HeartbeatIntervalSeconds) * time.Second
}

func (k KafkaConfig) SessionTimeout() time.Duration {
	return time.Duration(k.SessionTimeoutSeconds) * time.Second
}

type BookingConfig struct {
	HoldTTLMinutes     int `yaml:"hold_ttl_minutes"`
	PriceHoldTTLHours  int `yaml:"price_hold_ttl_hours"`
	ClaimRetries       int `yaml:"claim_retries"`
	ClaimBackoffMillis int `yaml:"claim_backoff_millis"`
	FlightsCacheTTL    int `yaml:"flights_cache_ttl_seconds"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLMinutes) * time.Minute
}

func (b BookingConfig) PriceHoldTTL() time.Duration {
	return time.Duration(b.PriceHoldTTLHours) * time.Hour
}

type WorkerConfig struct {
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
	MetricsAddress       string `yaml:"metrics_address"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.SweepIntervalSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverPostgres
	}
	if cfg.Booking.HoldTTLMinutes == 0 {
		cfg.Booking.HoldTTLMinutes = 15
	}
	if cfg.Booking.PriceHoldTTLHours == 0 {
		cfg.Booking.PriceHoldTTLHours = 48
	}
	if cfg.Booking.ClaimRetries == 0 {
		cfg.Booking.ClaimRetries = 3
	}
	if cfg.Booking.ClaimBackoffMillis == 0 {
		cfg.Booking.ClaimBackoffMillis = 25
	}
	if cfg.Kafka.HeartbeatIntervalSeconds == 0 {
		cfg.Kafka.HeartbeatIntervalSeconds = 3
	}
	if cfg.Kafka.SessionTimeoutSeconds == 0 {
		cfg.Kafka.SessionTimeoutSeconds = 30
	}
	if cfg.Worker.SweepIntervalSeconds == 0 {
		cfg.Worker.SweepIntervalSeconds = 60
	}
}
