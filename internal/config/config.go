package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string      `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort    string      `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis       Redis       `yaml:"redis"`
	Game        Game        `yaml:"game"`
	Matchmaking Matchmaking `yaml:"matchmaking"`
	Rating      Rating      `yaml:"rating"`
}

type Redis struct {
	Host            string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	FinishedGameTTL time.Duration `yaml:"finished-game-ttl" env:"REDIS_FINISHED_GAME_TTL" env-default:"24h"`
}

type Game struct {
	TimeControl   time.Duration `yaml:"time-control" env:"GAME_TIME_CONTROL" env-default:"360s"`
	Retention     time.Duration `yaml:"retention" env:"GAME_RETENTION" env-default:"1h"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"GAME_SWEEP_INTERVAL" env-default:"1m"`
}

type Matchmaking struct {
	TTL           time.Duration `yaml:"ttl" env:"MATCHMAKING_TTL" env-default:"30s"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"MATCHMAKING_SWEEP_INTERVAL" env-default:"10s"`
}

type Rating struct {
	KFactor int `yaml:"k-factor" env:"RATING_K_FACTOR" env-default:"32"`
	Default int `yaml:"default" env:"RATING_DEFAULT" env-default:"100"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and applies environment overrides on top.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
