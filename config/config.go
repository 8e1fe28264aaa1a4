package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SKYCLIENT"

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// 0 leaves requests bounded only by the caller's context.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

const (
	TargetDevice = "device"
	TargetWeb    = "web"
	TargetMemory = "memory"
)

type StorageConfig struct {
	Target    string `mapstructure:"target"`
	BadgerDir string `mapstructure:"badger_dir"`
	// hex encoded, 16/24/32 bytes once decoded; empty disables encryption
	EncryptionKey string      `mapstructure:"encryption_key"`
	Redis         RedisConfig `mapstructure:"redis"`
	KeyPrefix     string      `mapstructure:"key_prefix"`
}

func (s StorageConfig) EncryptionKeyBytes() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage.encryption_key is not hex: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("storage.encryption_key must decode to 16, 24 or 32 bytes, got %d", len(key))
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	// empty Redis.Addr disables the flight search cache
	Redis             RedisConfig `mapstructure:"redis"`
	FlightsTTLSeconds int         `mapstructure:"flights_ttl_seconds"`
}

func (c CacheConfig) FlightsTTL() time.Duration {
	return time.Duration(c.FlightsTTLSeconds) * time.Second
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Address         string      `mapstructure:"address"`
	JWTSecret       string      `mapstructure:"jwt_secret"`
	TokenTTLMinutes int         `mapstructure:"token_ttl_minutes"`
	DatabaseDSN     string      `mapstructure:"database_dsn"`
	SeedFile        string      `mapstructure:"seed_file"`
	Kafka           KafkaConfig `mapstructure:"kafka"`
}

func (s ServerConfig) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLMinutes) * time.Minute
}

// Validate checks the settings only the development backend needs.
func (s ServerConfig) Validate() error {
	var problems []string
	if s.Address == "" {
		problems = append(problems, "server.address is required")
	}
	if len(s.JWTSecret) < 16 {
		problems = append(problems, "server.jwt_secret must be at least 16 characters")
	}
	if s.TokenTTLMinutes <= 0 {
		problems = append(problems, "server.token_ttl_minutes must be positive")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type KafkaConfig struct {
	Brokers            []string `mapstructure:"brokers"`
	BookingEventsTopic string   `mapstructure:"booking_events_topic"`
	GroupID            string   `mapstructure:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.BookingEventsTopic != ""
}

// LoadConfig reads path (YAML), then applies SKYCLIENT_* environment
// overrides, e.g. SKYCLIENT_STORAGE_TARGET=web. A missing file is not an
// error; defaults and the environment are used instead. A .env file in the
// working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout_seconds", 0)

	v.SetDefault("storage.target", TargetDevice)
	v.SetDefault("storage.badger_dir", ".skyclient")
	v.SetDefault("storage.encryption_key", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.key_prefix", "skyclient")

	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 1)
	v.SetDefault("cache.flights_ttl_seconds", 240)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.token_ttl_minutes", 24*60)
	v.SetDefault("server.database_dsn", "")
	v.SetDefault("server.seed_file", "")
	v.SetDefault("server.kafka.brokers", []string{})
	v.SetDefault("server.kafka.booking_events_topic", "booking-events")
	v.SetDefault("server.kafka.group_id", "skyclient-notifier")
}

func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Target {
	case TargetDevice, TargetWeb, TargetMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.target must be one of device, web, memory (got %q)", c.Storage.Target))
	}
	if _, err := c.Storage.EncryptionKeyBytes(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.API.BaseURL == "" {
		problems = append(problems, "api.base_url is required")
	}
	if c.API.TimeoutSeconds < 0 {
		problems = append(problems, "api.timeout_seconds must not be negative")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
