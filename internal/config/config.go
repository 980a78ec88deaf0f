// Package config loads client configuration from YAML, .env and the
// environment, in that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport names
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

// Environment overrides
const (
	EnvAPIURL       = "TAGRACER_API_URL"
	EnvSocketURL    = "TAGRACER_SOCKET_URL"
	EnvTransport    = "TAGRACER_TRANSPORT"
	EnvNATSURL      = "TAGRACER_NATS_URL"
	EnvRedisAddr    = "TAGRACER_REDIS_ADDR"
	EnvLogLevel     = "TAGRACER_LOG_LEVEL"
	EnvGameDuration = "TAGRACER_GAME_DURATION"
)

// Config is the client configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig configures the HTTP collaborator.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// RealtimeConfig configures the realtime channel.
type RealtimeConfig struct {
	Transport string `yaml:"transport"` // websocket | nats
	SocketURL string `yaml:"socket_url"`
	NATSURL   string `yaml:"nats_url"`
	Subject   string `yaml:"subject"`
}

// RedisConfig configures the optional snapshot mirror. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// GameConfig holds game constants shared with the server.
type GameConfig struct {
	Duration int `yaml:"duration"` // seconds
}

// UIConfig configures the terminal scoreboard.
type UIConfig struct {
	RefreshRate int  `yaml:"refresh_rate"` // display refresh, Hz
	Sound       bool `yaml:"sound"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TimeoutDuration returns the HTTP timeout.
func (c *APIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// DurationValue returns the game duration.
func (c *GameConfig) DurationValue() time.Duration {
	return time.Duration(c.Duration) * time.Second
}

// TickInterval returns the time between display refresh ticks.
func (c *UIConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.RefreshRate)
}

// Load reads the YAML file at path (optional when empty), then .env, then
// environment overrides, and applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Realtime.Transport {
	case TransportWebSocket, TransportNATS:
	default:
		return fmt.Errorf("unknown realtime transport %q", c.Realtime.Transport)
	}
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:5000/api"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10
	}
	if cfg.Realtime.Transport == "" {
		cfg.Realtime.Transport = TransportWebSocket
	}
	if cfg.Realtime.SocketURL == "" {
		cfg.Realtime.SocketURL = "ws://localhost:5000/ws"
	}
	if cfg.Realtime.NATSURL == "" {
		cfg.Realtime.NATSURL = "nats://localhost:4222"
	}
	if cfg.Realtime.Subject == "" {
		cfg.Realtime.Subject = "tagracer.events"
	}
	if cfg.Redis.Key == "" {
		cfg.Redis.Key = "tagracer:snapshot"
	}
	if cfg.Game.Duration == 0 {
		cfg.Game.Duration = 5 * 60
	}
	if cfg.UI.RefreshRate == 0 {
		cfg.UI.RefreshRate = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyEnv(cfg *Config) {
	cfg.API.BaseURL = getEnv(EnvAPIURL, cfg.API.BaseURL)
	cfg.Realtime.SocketURL = getEnv(EnvSocketURL, cfg.Realtime.SocketURL)
	cfg.Realtime.Transport = getEnv(EnvTransport, cfg.Realtime.Transport)
	cfg.Realtime.NATSURL = getEnv(EnvNATSURL, cfg.Realtime.NATSURL)
	cfg.Redis.Addr = getEnv(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Log.Level = getEnv(EnvLogLevel, cfg.Log.Level)
	cfg.Game.Duration = getEnvAsInt(EnvGameDuration, cfg.Game.Duration)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
