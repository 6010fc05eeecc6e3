package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthModeDev    = "dev"
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// Config es la configuración completa del servicio.
// Orden de carga: defaults -> YAML (CONFIG_FILE) -> variables de entorno.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	App    string `yaml:"app" env:"APP_NAME"`
}

// DBConfig: DSN vacío => storage in-memory.
type DBConfig struct {
	DSN             string        `yaml:"dsn" env:"DB_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

type AuthConfig struct {
	Mode string `yaml:"mode" env:"AUTH_MODE"`

	// jwt
	Secret        string `yaml:"jwt_secret" env:"JWT_SECRET"`
	PublicKeyFile string `yaml:"jwt_public_key_file" env:"JWT_PUBLIC_KEY_FILE"`
	Issuer        string `yaml:"jwt_issuer" env:"JWT_ISSUER"`
	Audience      string `yaml:"jwt_audience" env:"JWT_AUDIENCE"`

	// remote
	RemoteURL     string        `yaml:"remote_url" env:"AUTH_REMOTE_URL"`
	RemoteAPIKey  string        `yaml:"remote_api_key" env:"AUTH_REMOTE_API_KEY"`
	RemoteTimeout time.Duration `yaml:"remote_timeout" env:"AUTH_REMOTE_TIMEOUT"`
}

// RedisConfig: URL vacía => lock en proceso.
type RedisConfig struct {
	URL     string        `yaml:"url" env:"REDIS_URL"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL"`
}

// RateLimitConfig: RPS <= 0 desactiva el limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			App:    "pet-clinic-appointments",
		},
		DB: DBConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			Mode:          AuthModeDev,
			RemoteTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			LockTTL: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   0,
			Burst: 20,
		},
	}
}

// Load lee .env (si existe), el YAML de CONFIG_FILE (si está) y pisa con env.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode env: %w", err)
	}

	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Port) == "" {
		return errors.New("config: http port is required")
	}

	switch c.Auth.Mode {
	case AuthModeDev, "":
	case AuthModeJWT:
		if c.Auth.Secret == "" && c.Auth.PublicKeyFile == "" {
			return errors.New("config: jwt mode requires JWT_SECRET or JWT_PUBLIC_KEY_FILE")
		}
	case AuthModeRemote:
		if c.Auth.RemoteURL == "" || c.Auth.RemoteAPIKey == "" {
			return errors.New("config: remote mode requires AUTH_REMOTE_URL and AUTH_REMOTE_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit burst must be positive")
	}
	return nil
}

func (c HTTPConfig) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}
