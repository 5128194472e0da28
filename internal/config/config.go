package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Values come from defaults, then
// the YAML file, then environment variables named by the env tags.
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL         string `yaml:"base_url" env:"SERVER_BASE_URL"`
		MaxRequestBytes int64  `yaml:"max_request_bytes" env:"SERVER_MAX_REQUEST_BYTES"`
		StoragePath     string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		MigrationsDir   string `yaml:"migrations_dir" env:"SERVER_MIGRATIONS_DIR"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Admin struct {
		Name     string `yaml:"name" env:"ADMIN_NAME"`
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Phone    string `yaml:"phone" env:"ADMIN_PHONE"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
		Address  string `yaml:"address" env:"ADMIN_ADDRESS"`
		Country  string `yaml:"country" env:"ADMIN_COUNTRY"`
		State    string `yaml:"state" env:"ADMIN_STATE"`
		District string `yaml:"district" env:"ADMIN_DISTRICT"`
		Pincode  string `yaml:"pincode" env:"ADMIN_PINCODE"`
	} `yaml:"admin"`

	SMTP struct {
		Host          string `yaml:"host" env:"SMTP_HOST"`
		Port          int    `yaml:"port" env:"SMTP_PORT"`
		Username      string `yaml:"username" env:"SMTP_USERNAME"`
		Password      string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName      string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail     string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		SkipTLSVerify bool   `yaml:"skip_tls_verify" env:"SMTP_SKIP_TLS_VERIFY"`
	} `yaml:"smtp"`

	Review struct {
		StrictTransitions bool `yaml:"strict_transitions" env:"REVIEW_STRICT_TRANSITIONS"`
	} `yaml:"review"`

	Documents struct {
		MaxEncodedBytes int `yaml:"max_encoded_bytes" env:"DOCUMENTS_MAX_ENCODED_BYTES"`
		MaxDecodedBytes int `yaml:"max_decoded_bytes" env:"DOCUMENTS_MAX_DECODED_BYTES"`
		MinDecodedBytes int `yaml:"min_decoded_bytes" env:"DOCUMENTS_MIN_DECODED_BYTES"`
	} `yaml:"documents"`
}

// LoadConfig loads configuration from a .env file (optional), a YAML file
// (optional) and the process environment, in that order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.MaxRequestBytes = 16 << 20
	config.Server.StoragePath = "storage/offer_letters"
	config.Server.MigrationsDir = "migrations"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "uniadmit"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "uniadmit"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Admin.Name = "Admin"
	config.Admin.Email = "admin@email.com"
	config.Admin.Phone = "1234567890"
	config.Admin.Password = "adminpassword"
	config.Admin.Address = "Admin HQ"
	config.Admin.Country = "India"
	config.Admin.State = "Karnataka"
	config.Admin.District = "Bengaluru"
	config.Admin.Pincode = "560001"

	config.SMTP.Port = 587
	config.SMTP.FromName = "UniAdmit Admissions"

	config.Documents.MaxEncodedBytes = 6 << 20
	config.Documents.MaxDecodedBytes = 5 << 20
	config.Documents.MinDecodedBytes = 100
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}
	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection lifetime: %w", err)
	}
	if config.Server.MaxRequestBytes <= 0 {
		return fmt.Errorf("server max_request_bytes must be positive")
	}
	d := config.Documents
	if d.MinDecodedBytes < 0 || d.MaxDecodedBytes <= d.MinDecodedBytes || d.MaxEncodedBytes < d.MaxDecodedBytes {
		return fmt.Errorf("document limits are inconsistent (min=%d max=%d encoded=%d)",
			d.MinDecodedBytes, d.MaxDecodedBytes, d.MaxEncodedBytes)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// SMTPConfigured reports whether outbound mail can actually be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.FromEmail != ""
}

// GetPostgresConnectionString returns the pgx connection URL.
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}
