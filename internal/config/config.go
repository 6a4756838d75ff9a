package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string    `yaml:"log-level" env:"ARENA_LOG_LEVEL" env-default:"info"`
	UserID      string    `yaml:"user-id" env:"ARENA_USER_ID" env-required:"true"`
	DisplayName string    `yaml:"display-name" env:"ARENA_DISPLAY_NAME"`
	Server      Server    `yaml:"server"`
	Game        Game      `yaml:"game"`
	Replay      Replay    `yaml:"replay"`
	Redis       Redis     `yaml:"redis"`
	Transport   Transport `yaml:"transport"`
}

type Server struct {
	WSURL  string `yaml:"ws-url" env:"ARENA_WS_URL" env-default:"ws://localhost:5000/ws"`
	APIURL string `yaml:"api-url" env:"ARENA_API_URL" env-default:"http://localhost:5000"`
}

type Game struct {
	TurnDuration time.Duration `yaml:"turn-duration" env-default:"30s"`
	FirstMover   int           `yaml:"first-mover" env-default:"1"`
}

type Replay struct {
	AutoplayInterval time.Duration `yaml:"autoplay-interval" env-default:"1s"`
	CacheTTL         time.Duration `yaml:"cache-ttl" env-default:"24h"`
}

// Redis is the optional replay cache. An empty host disables it.
type Redis struct {
	Host     string `yaml:"host" env:"ARENA_REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"ARENA_REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"ARENA_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type Transport struct {
	OutboundBuffer      int           `yaml:"outbound-buffer" env-default:"32"`
	ReconnectMaxElapsed time.Duration `yaml:"reconnect-max-elapsed" env-default:"0s"` // zero retries until shutdown
	HandshakeTimeout    time.Duration `yaml:"handshake-timeout" env-default:"10s"`
}

// MustLoad - load all configurations in config.yml file, environment variables win.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) Enabled() bool {
	return that.Host != ""
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
