package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KevinKickass/RoverLink/internal/stick"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Sampler SamplerConfig `mapstructure:"sampler"`
	Stick   StickConfig   `mapstructure:"stick"`
	Media   MediaConfig   `mapstructure:"media"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Layout  LayoutConfig  `mapstructure:"layout"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RemoteConfig addresses the platform: one host, one port per channel.
type RemoteConfig struct {
	Host        string        `mapstructure:"host"`
	CommandPort int           `mapstructure:"command_port"`
	MediaPort   int           `mapstructure:"media_port"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type SamplerConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	SendBuffer int           `mapstructure:"send_buffer"`
}

type StickConfig struct {
	MaxOffset float64 `mapstructure:"max_offset"`
}

type MediaConfig struct {
	MaxMessageSize int64 `mapstructure:"max_message_size"`
}

// Auth Configuration
type AuthConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	JWTSecretEnv   string        `mapstructure:"jwt_secret_env"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LayoutConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads the config file at path. An empty path uses defaults and
// environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// ROVER_REMOTE_HOST overrides remote.host
	v.SetEnvPrefix("ROVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("remote.host", "192.168.188.233")
	v.SetDefault("remote.command_port", 65432)
	v.SetDefault("remote.media_port", 65433)
	v.SetDefault("remote.dial_timeout", "5s")

	v.SetDefault("sampler.interval", "100ms")
	v.SetDefault("sampler.send_buffer", 16)

	v.SetDefault("stick.max_offset", 100)

	v.SetDefault("media.max_message_size", 8*1024*1024)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret_env", "ROVER_JWT_SECRET")
	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("log.development", false)
}

func (c *Config) Validate() error {
	if c.Remote.Host == "" {
		return fmt.Errorf("remote.host must be set")
	}
	if c.Remote.CommandPort == c.Remote.MediaPort {
		return fmt.Errorf("remote.command_port and remote.media_port must differ (both %d)", c.Remote.CommandPort)
	}
	if c.Sampler.Interval <= 0 {
		return fmt.Errorf("sampler.interval must be positive")
	}
	if c.Stick.MaxOffset <= 0 || c.Stick.MaxOffset > stick.DefaultMaxOffset {
		return fmt.Errorf("stick.max_offset must be in (0, %g], got %g", stick.DefaultMaxOffset, c.Stick.MaxOffset)
	}
	return nil
}

// CommandURL is the websocket address of the command channel.
func (r *RemoteConfig) CommandURL() string {
	return fmt.Sprintf("ws://%s:%d", r.Host, r.CommandPort)
}

// MediaURL is the websocket address of the media channel.
func (r *RemoteConfig) MediaURL() string {
	return fmt.Sprintf("ws://%s:%d", r.Host, r.MediaPort)
}

// JWT Secret aus Environment Variable laden
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "ROVER_JWT_SECRET"
	}
	return os.Getenv(envVar)
}
