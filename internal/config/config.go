package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/logger"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Store struct {
	Log            logger.Config
	Address        string        `yaml:"store_address" env:"STORE_ADDRESS" env-default:":8081"`
	DBDriver       string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"postgres"`
	DBDSN          string        `yaml:"db_dsn" env:"DB_DSN" env-required:"true"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	ServiceKey     string        `yaml:"service_key" env:"STORE_SERVICE_KEY" env-required:"true"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	AuthRateLimit  int           `yaml:"auth_rate_limit" env:"AUTH_RATE_LIMIT" env-default:"5"`
	AuthRateWindow time.Duration `yaml:"auth_rate_window" env:"AUTH_RATE_WINDOW" env-default:"15m"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// Validate catches values cleanenv lets through: env-required only checks
// that a variable is set, so an empty DB_DSN or STORE_SERVICE_KEY passes it.
func (c Store) Validate() error {
	if strings.TrimSpace(c.DBDSN) == "" {
		return errors.New("DB_DSN must not be empty")
	}
	if strings.TrimSpace(c.ServiceKey) == "" {
		return errors.New("STORE_SERVICE_KEY must not be empty")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateWindow <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	return nil
}

// Gateway store credentials are optional at start-up; requests fail with
// 500 until they are provided.
type Gateway struct {
	Log            logger.Config
	Address        string        `yaml:"gateway_address" env:"GATEWAY_ADDRESS" env-default:":8888"`
	StoreURL       string        `yaml:"store_url" env:"STORE_URL"`
	StoreKey       string        `yaml:"store_service_key" env:"STORE_SERVICE_KEY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

type CLI struct {
	StoreURL    string        `yaml:"store_url" env:"TASKCTL_STORE_URL" env-default:"http://localhost:8081"`
	GatewayURL  string        `yaml:"gateway_url" env:"TASKCTL_GATEWAY_URL" env-default:"http://localhost:8888/functions/create-task"`
	SessionFile string        `yaml:"session_file" env:"TASKCTL_SESSION"`
	Timeout     time.Duration `yaml:"timeout" env:"TASKCTL_TIMEOUT" env-default:"10s"`
}

// Load reads .env into the environment if present, then fills cfg from the
// YAML file at path. An empty path or a missing file falls back to the
// environment alone.
func Load(path string, cfg any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		return readEnv(cfg)
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return readEnv(cfg)
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}
	return nil
}

func readEnv(cfg any) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}
