package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret — секрет подписи обязателен, дефолта нет.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Port string
	Env  string // dev|prod

	Store     string // postgres|memory
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	DbTimeout         time.Duration
	DbConnectAttempts int

	JWTSecret        string
	SessionTokenTTL  time.Duration
	PasswordResetTTL time.Duration

	PasswordHash     string // bcrypt|argon2id
	BcryptCost       int
	AllowAdminSignup bool

	Log      string
	LogLevel string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	EmailWorkers int

	FrontendURL        string
	CORSAllowedOrigins []string
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
// Пустой JWT_SECRET — фатальная ошибка: сервис не стартует.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")
	return loadFromEnv(os.Getenv)
}

func loadFromEnv(getenv func(string) string) (*Config, error) {
	def := func(key, d string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port: def("PORT", "8080"),
		Env:  strings.ToLower(def("ENV", "prod")),

		Store:     strings.ToLower(def("STORE", "postgres")),
		DbHost:    getenv("DB_HOST"),
		DbPort:    def("DB_PORT", "5432"),
		DbUser:    getenv("DB_USER"),
		DbPass:    getenv("DB_PASSWORD"),
		DbName:    getenv("DB_NAME"),
		DbSSLMode: def("DB_SSLMODE", "disable"),

		JWTSecret: strings.TrimSpace(getenv("JWT_SECRET")),

		PasswordHash: strings.ToLower(def("PASSWORD_HASH", "bcrypt")),

		Log:      getenv("LOG"),
		LogLevel: strings.ToLower(def("LOGLEVEL", "info")),

		SMTPHost:     getenv("SMTP_HOST"),
		SMTPPort:     def("SMTP_PORT", "587"),
		SMTPUser:     getenv("SMTP_USER"),
		SMTPPassword: getenv("SMTP_PASSWORD"),
		MailFrom:     def("MAIL_FROM", getenv("SMTP_USER")),

		FrontendURL:        strings.TrimRight(def("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSAllowedOrigins: splitCSV(def("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	var err error
	if cfg.DbTimeout, err = time.ParseDuration(def("DB_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("parse DB_TIMEOUT: %w", err)
	}
	if cfg.SessionTokenTTL, err = time.ParseDuration(def("SESSION_TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("parse SESSION_TOKEN_TTL: %w", err)
	}
	if cfg.PasswordResetTTL, err = time.ParseDuration(def("PASSWORD_RESET_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("parse PASSWORD_RESET_TTL: %w", err)
	}
	if cfg.DbConnectAttempts, err = strconv.Atoi(def("DB_CONNECT_ATTEMPTS", "5")); err != nil {
		return nil, fmt.Errorf("parse DB_CONNECT_ATTEMPTS: %w", err)
	}
	if cfg.BcryptCost, err = strconv.Atoi(def("BCRYPT_COST", "12")); err != nil {
		return nil, fmt.Errorf("parse BCRYPT_COST: %w", err)
	}
	if cfg.EmailWorkers, err = strconv.Atoi(def("EMAIL_WORKERS", "3")); err != nil {
		return nil, fmt.Errorf("parse EMAIL_WORKERS: %w", err)
	}
	if cfg.AllowAdminSignup, err = strconv.ParseBool(def("ALLOW_ADMIN_SIGNUP", "false")); err != nil {
		return nil, fmt.Errorf("parse ALLOW_ADMIN_SIGNUP: %w", err)
	}

	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	if c.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if c.SessionTokenTTL <= 0 || c.PasswordResetTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TOKEN_TTL and PASSWORD_RESET_TTL must be positive")
	}

	switch c.Store {
	case "postgres":
		if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
			return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
		}
	case "memory":
		warnings = append(warnings, "STORE=memory: users are lost on restart")
	default:
		return nil, fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.PasswordHash != "bcrypt" && c.PasswordHash != "argon2id" {
		return nil, fmt.Errorf("unknown PASSWORD_HASH %q", c.PasswordHash)
	}

	if len(c.JWTSecret) < 32 {
		warnings = append(warnings, "JWT_SECRET is shorter than 32 bytes")
	}

	if c.SMTPHost == "" || c.SMTPUser == "" {
		warnings = append(warnings, "SMTP is not fully configured, reset emails are not sent")
	}

	return warnings, nil
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
