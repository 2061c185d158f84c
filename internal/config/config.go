package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"UTTT_LOG_LEVEL" env-default:"info"`
	HTTPPort string  `yaml:"http-port" env:"UTTT_HTTP_PORT" env-default:"9090"`
	Relay    Relay   `yaml:"relay"`
	Redis    Redis   `yaml:"redis"`
	Session  Session `yaml:"session"`
}

type Relay struct {
	Host string `yaml:"host" env:"UTTT_RELAY_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"UTTT_RELAY_PORT" env-default:"6000"`
	Path string `yaml:"path" env:"UTTT_RELAY_PATH" env-default:"/ws"`

	// Broker is either "memory" (single relay process) or "redis".
	Broker string `yaml:"broker" env:"UTTT_RELAY_BROKER" env-default:"memory"`

	MessageRate  float64 `yaml:"message-rate" env:"UTTT_RELAY_MESSAGE_RATE" env-default:"20"`
	MessageBurst int     `yaml:"message-burst" env:"UTTT_RELAY_MESSAGE_BURST" env-default:"40"`
}

type Redis struct {
	Host    string        `yaml:"host" env:"UTTT_REDIS_HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"UTTT_REDIS_PORT" env-default:"6379"`
	RoomTTL time.Duration `yaml:"room-ttl" env:"UTTT_REDIS_ROOM_TTL" env-default:"2h"`
}

type Session struct {
	TickInterval time.Duration `yaml:"tick-interval" env:"UTTT_TICK_INTERVAL" env-default:"16ms"`
	SettleDelay  time.Duration `yaml:"settle-delay" env:"UTTT_SETTLE_DELAY" env-default:"3s"`
	Room         string        `yaml:"room" env:"UTTT_ROOM" env-default:""`
}

// MustLoad - load all configurations in config.yml file, or from the environment alone when the file is missing.
func MustLoad(path string) *Config {
	config := &Config{}

	err := cleanenv.ReadConfig(path, config)
	if errors.Is(err, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err = config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

var (
	ErrUnknownBroker   = errors.New("unknown relay broker")
	ErrInvalidInterval = errors.New("tick interval must be positive")
	ErrInvalidRate     = errors.New("relay message rate and burst must be positive")
)

func (that *Config) Validate() error {
	if that.Relay.Broker != BrokerMemory && that.Relay.Broker != BrokerRedis {
		return fmt.Errorf("%w: %q", ErrUnknownBroker, that.Relay.Broker)
	}

	if that.Session.TickInterval <= 0 {
		return ErrInvalidInterval
	}

	if that.Relay.MessageRate <= 0 || that.Relay.MessageBurst <= 0 {
		return ErrInvalidRate
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

// ListenAddr - the address the relay listens on.
func (that *Relay) ListenAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

// URL - the websocket url participants dial.
func (that *Relay) URL() string {
	return fmt.Sprintf("ws://%s%s", that.ListenAddr(), that.Path)
}
