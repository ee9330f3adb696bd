package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Alumni store backends
const (
	AlumniStorePostgres = "postgres"
	AlumniStoreMongo    = "mongodb"
)

// File storage drivers
const (
	StorageDriverLocal    = "local"
	StorageDriverSupabase = "supabase"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string   `yaml:"port" env:"SERVER_PORT"`
		Mode        string   `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string   `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		PublicURL   string   `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
		CORSOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsPath  string `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri" env:"MONGO_URI"`
		Database string `yaml:"database" env:"MONGO_DATABASE"`
		Timeout  string `yaml:"timeout" env:"MONGO_TIMEOUT"`
	} `yaml:"mongo"`

	Alumni struct {
		Store            string `yaml:"store" env:"ALUMNI_STORE"`
		StrictValidation bool   `yaml:"strict_validation" env:"ALUMNI_STRICT_VALIDATION"`
		StrictNestedJSON bool   `yaml:"strict_nested_json" env:"ALUMNI_STRICT_NESTED_JSON"`
		MaxUploadMB      int    `yaml:"max_upload_mb" env:"ALUMNI_MAX_UPLOAD_MB"`
		UploadFolder     string `yaml:"upload_folder" env:"ALUMNI_UPLOAD_FOLDER"`
	} `yaml:"alumni"`

	Storage struct {
		Driver   string `yaml:"driver" env:"STORAGE_DRIVER"`
		Supabase struct {
			URL    string `yaml:"url" env:"SUPABASE_URL"`
			Key    string `yaml:"key" env:"SUPABASE_KEY"`
			Bucket string `yaml:"bucket" env:"SUPABASE_BUCKET"`
		} `yaml:"supabase"`
	} `yaml:"storage"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Auth struct {
		DefaultRole      string `yaml:"default_role" env:"AUTH_DEFAULT_ROLE"`
		ResetTokenTTL    string `yaml:"reset_token_ttl" env:"AUTH_RESET_TOKEN_TTL"`
		FrontendResetURL string `yaml:"frontend_reset_url" env:"AUTH_FRONTEND_RESET_URL"`
	} `yaml:"auth"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	Seed struct {
		Enabled       bool   `yaml:"enabled" env:"SEED_ENABLED"`
		AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	} `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file, an optional .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
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

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv loads variables from .env (or ENV_FILE) without overriding the real environment.
// A missing file is not an error.
func loadDotEnv() error {
	path := GetEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./uploads"
	config.Server.PublicURL = "http://localhost:8080"
	config.Server.CORSOrigins = []string{"*"}

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "alumnisphere"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsPath = "migrations"

	config.Mongo.Database = "alumnisphere"
	config.Mongo.Timeout = "10s"

	// Alumni defaults
	config.Alumni.Store = AlumniStorePostgres
	config.Alumni.MaxUploadMB = 10
	config.Alumni.UploadFolder = "alumni"

	config.Storage.Driver = StorageDriverLocal

	// JWT defaults
	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "alumnisphere.app"

	// Auth defaults
	config.Auth.DefaultRole = "user"
	config.Auth.ResetTokenTTL = "1h"
	config.Auth.FrontendResetURL = "http://localhost:3000/reset-password"

	config.SMTP.Port = 587
	config.SMTP.FromName = "AlumniSphere"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnv(reflect.ValueOf(config).Elem())
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Auth.ResetTokenTTL); err != nil {
		return fmt.Errorf("invalid password reset token ttl format: %w", err)
	}

	switch config.Auth.DefaultRole {
	case "user", "staff", "admin":
	default:
		return fmt.Errorf("unknown default role %q", config.Auth.DefaultRole)
	}

	for _, origin := range config.Server.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("cors origin %q must be \"*\" or start with http:// or https://", origin)
		}
	}

	switch config.Alumni.Store {
	case AlumniStorePostgres:
	case AlumniStoreMongo:
		if config.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required when alumni store is %q", AlumniStoreMongo)
		}
	default:
		return fmt.Errorf("unknown alumni store %q", config.Alumni.Store)
	}

	if config.Alumni.MaxUploadMB <= 0 {
		return fmt.Errorf("alumni max upload size must be positive")
	}

	switch config.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverSupabase:
		s := config.Storage.Supabase
		if s.URL == "" || s.Key == "" || s.Bucket == "" {
			return fmt.Errorf("supabase url, key and bucket are required for the supabase storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "development"
}

// MaxUploadBytes returns the per-file upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Alumni.MaxUploadMB) << 20
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
