package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the optional config file
// and environment variables. Environment always wins.
type Config struct {
	Env      string `mapstructure:"env"` // local, dev, production
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"` // sqlite | postgres
	DBDSN    string `mapstructure:"-"`

	JWTSecret string        `mapstructure:"-"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// Bootstrap admin account, created on startup if absent.
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassHash string `mapstructure:"-"` // bcrypt

	CORSOrigins []string `mapstructure:"cors_origins"`

	// Percentage of max_score required to pass a test. 100 reproduces the
	// historical all-correct rule.
	PassThresholdPct int `mapstructure:"pass_threshold_pct"`
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

// Load reads configuration from .env, ./config/config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("token_ttl", "8h")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("pass_threshold_pct", 100)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("db_dsn", "DB_DSN")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("admin_pass_hash", "ADMIN_PASS_HASH")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DBDSN = v.GetString("db_dsn")
	cfg.AdminPassHash = v.GetString("admin_pass_hash")
	cfg.JWTSecret = v.GetString("jwt_secret")
	if cfg.JWTSecret == "" {
		if cfg.Env != "local" {
			return nil, ErrMissingSecret
		}
		cfg.JWTSecret = "local-dev-secret"
	}
	if cfg.PassThresholdPct < 0 || cfg.PassThresholdPct > 100 {
		return nil, fmt.Errorf("pass_threshold_pct out of range: %d", cfg.PassThresholdPct)
	}
	return &cfg, nil
}
