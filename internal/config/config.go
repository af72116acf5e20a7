package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "your_jwt_secret_minimum_32_chars_here_change_this"

type Config struct {
	// Database
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	// Security
	JWTSecret       string        `yaml:"jwt_secret_key"`
	SessionTokenTTL time.Duration `yaml:"session_token_ttl"`
	EmailTokenTTL   time.Duration `yaml:"email_token_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	CookieSecure    bool          `yaml:"cookie_secure"`

	// Email verification
	RequireEmailVerification bool   `yaml:"require_email_verification"`
	PublicBaseURL            string `yaml:"public_base_url"`
	SMTPHost                 string `yaml:"smtp_host"`
	SMTPPort                 int    `yaml:"smtp_port"`
	SMTPUser                 string `yaml:"smtp_user"`
	SMTPPassword             string `yaml:"smtp_password"`
	SMTPFrom                 string `yaml:"smtp_from"`

	// Application
	AppEnv   string `yaml:"app_env"`
	AppPort  string `yaml:"app_port"`
	LogLevel string `yaml:"log_level"`

	// Rate Limiting (requests per minute)
	RateLimitPerUser int `yaml:"rate_limit_per_user"`
	RateLimitPerIP   int `yaml:"rate_limit_per_ip"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		DBHost:    "localhost",
		DBPort:    "5432",
		DBUser:    "friends",
		DBName:    "friends_db",
		DBSSLMode: "disable",

		SessionTokenTTL: 5 * 24 * time.Hour,
		EmailTokenTTL:   15 * time.Minute,
		BcryptCost:      12,

		PublicBaseURL: "http://localhost:8080",
		SMTPPort:      465,

		AppEnv:   "development",
		AppPort:  "8080",
		LogLevel: "info",

		RateLimitPerUser: 120,
		RateLimitPerIP:   30,
	}
}

func LoadConfig() (*Config, error) {
	cfg := Default()

	// Optional YAML file, env vars still win
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBSSLMode = getEnv("DB_SSLMODE", cfg.DBSSLMode)

	cfg.JWTSecret = getEnv("JWT_SECRET_KEY", cfg.JWTSecret)
	cfg.SessionTokenTTL = getEnvDuration("SESSION_TOKEN_TTL", cfg.SessionTokenTTL)
	cfg.EmailTokenTTL = getEnvDuration("EMAIL_TOKEN_TTL", cfg.EmailTokenTTL)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", cfg.CookieSecure)

	cfg.RequireEmailVerification = getEnvBool("REQUIRE_EMAIL_VERIFICATION", cfg.RequireEmailVerification)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = getEnv("SMTP_FROM", cfg.SMTPFrom)

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.RateLimitPerUser = getEnvInt("RATE_LIMIT_PER_USER", cfg.RateLimitPerUser)
	cfg.RateLimitPerIP = getEnvInt("RATE_LIMIT_PER_IP", cfg.RateLimitPerIP)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.SessionTokenTTL <= 0 || c.EmailTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.EmailTokenTTL >= c.SessionTokenTTL {
		return fmt.Errorf("EMAIL_TOKEN_TTL must be shorter than SESSION_TOKEN_TTL")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	if !c.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be enabled in production")
	}
	if c.RequireEmailVerification && (c.SMTPHost == "" || c.SMTPFrom == "") {
		return fmt.Errorf("SMTP_HOST and SMTP_FROM must be set when email verification is required")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
