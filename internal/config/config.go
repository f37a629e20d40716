// Package config предоставляет структуры и функции для загрузки конфига
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string               `yaml:"env" env:"APP_ENV" env-default:"local"`
	StorageConnectionString string               `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string               `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	BcryptCost              int                  `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	Scoring                 `yaml:"scoring"`
	RabbitMQ                `yaml:"rabbitmq"`
	Scheduler               `yaml:"scheduler"`
	Competitions            []models.Competition `yaml:"competitions"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP      string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP      time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env-default:"5s"`
	AllowedOrigins   []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	RateLimitRPS     float64       `yaml:"rate_limit_rps" env-default:"100"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" env-default:"200"`
	AuthRequestLimit int           `yaml:"auth_request_limit" env-default:"20"`
	AuthLimitWindow  time.Duration `yaml:"auth_limit_window" env-default:"1m"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой AddressRedis отключает кэш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"1m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	Issuer       string        `yaml:"issuer" env-default:"betting-rank"`
}

// Scoring веса формулы очков.
type Scoring struct {
	WinWeight  float64 `yaml:"win_weight" env-default:"1"`
	RateWeight float64 `yaml:"rate_weight" env-default:"100"`
}

// RabbitMQ настройки брокера. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Prefetch   int           `yaml:"prefetch" env-default:"20"`
	Workers    int           `yaml:"workers" env-default:"10"`
}

// Scheduler настройки фоновых задач.
type Scheduler struct {
	Interval time.Duration `yaml:"interval" env-default:"1m"`
}

// Validate проверяет значения, без которых сервис не может работать.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("jwttoken.jwt_secret_key is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("jwttoken.token_ttl must be positive")
	}
	if c.WinWeight < 0 || c.RateWeight < 0 {
		return errors.New("scoring weights must not be negative")
	}
	seen := make(map[string]struct{}, len(c.Competitions))
	for _, comp := range c.Competitions {
		if comp.ID == "" || comp.Name == "" {
			return errors.New("competition id and name are required")
		}
		if _, ok := seen[comp.ID]; ok {
			return fmt.Errorf("duplicate competition id %q", comp.ID)
		}
		seen[comp.ID] = struct{}{}
	}
	return nil
}

// Load читает конфиг из файла path, накладывает переменные окружения и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает .env (если есть) и конфиг из CONFIG_PATH, завершая процесс при ошибке
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("cannot load .env: %s", err)
	}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// String выводит конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  RequestTimeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ: %t\n"+
			"Scoring: win=%g rate=%g\n"+
			"Competitions: %d\n",
		c.Env,
		storageKind(c.StorageConnectionString),
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.RequestTimeout,
		c.AddressRedis,
		c.URL != "",
		c.WinWeight,
		c.RateWeight,
		len(c.Competitions),
	)
}

func storageKind(conn string) string {
	if conn == "" {
		return "memory"
	}
	return "postgres"
}
