package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"streamraffle"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	RandomOrg struct {
		APIKey  string        `env:"RANDOM_ORG_API_KEY"`
		BaseURL string        `env:"RANDOM_ORG_BASE_URL" envDefault:"https://api.random.org/json-rpc/4/invoke"`
		Timeout time.Duration `env:"RANDOM_ORG_TIMEOUT" envDefault:"15s"`
	}

	Draw struct {
		// sha256 or md5; md5 is accepted for older audit verifiers only.
		HashAlgorithm string        `env:"DRAW_HASH_ALGORITHM" envDefault:"sha256"`
		LockTTL       time.Duration `env:"DRAW_LOCK_TTL" envDefault:"30s"`
	}

	Dedup struct {
		// 30 days; storage hygiene only, the entries table stays the
		// source of truth for what was granted.
		TTL time.Duration `env:"DEDUP_TTL" envDefault:"720h"`
	}

	StreamAPI struct {
		TwitchBaseURL  string        `env:"TWITCH_API_BASE_URL" envDefault:"https://api.twitch.tv/helix"`
		KickBaseURL    string        `env:"KICK_API_BASE_URL" envDefault:"https://kick.com/api/v2"`
		YouTubeBaseURL string        `env:"YOUTUBE_API_BASE_URL" envDefault:"https://www.googleapis.com/youtube/v3"`
		Timeout        time.Duration `env:"STREAM_API_TIMEOUT" envDefault:"10s"`
		RatePerSecond  float64       `env:"STREAM_API_RATE" envDefault:"5"`
	}
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password,
		c.Postgres.Database, c.Postgres.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env is optional; in production the variables are set directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
