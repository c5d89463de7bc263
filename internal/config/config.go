package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	validBackends   = []string{"memory", "sqlite", "postgres", "mongo"}
	validAlgorithms = []string{"HS256", "HS384", "HS512"}
	validLogFormats = []string{"text", "json"}
)

// Config is built once by Load and never modified afterwards.
type Config struct {
	// HTTP Server
	Port            string        `env:"PORT" envDefault:"8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Persistence
	DataBackend  string `env:"DATA_BACKEND" envDefault:"mongo"`
	DatabaseURL  string `env:"DATABASE_URL"`
	MongoDBURL   string `env:"MONGODB_URL"`
	DatabaseName string `env:"DATABASE_NAME"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/tracker.db"`

	// Tokens and passwords
	JWTSecret        string `env:"JWT_SECRET"`
	JWTAlgorithm     string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES"`
	BcryptCost       int    `env:"BCRYPT_COST" envDefault:"10"`

	// HTTP policy
	CORSOrigins        string `env:"CORS_ORIGINS"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// AMQP (optional)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"tracker"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"ledger_export"`

	// Google Sheets ledger export (optional, worker only)
	GoogleSpreadsheetID   string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName       string `env:"GOOGLE_SHEET_NAME" envDefault:"Ledger"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
	GoogleCredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then the process environment.
// MONGODB_URL is accepted as an alias for DATABASE_URL.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.MongoDBURL
	}
	return cfg, nil
}

// Validate checks everything the API server needs and returns an error
// listing every problem.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.serverErrors()...)
	errs = append(errs, c.storageErrors()...)
	errs = append(errs, c.amqpErrors()...)
	errs = append(errs, c.sheetsErrors()...)
	errs = append(errs, c.logErrors()...)
	return joinErrors(errs)
}

// ValidateWorker checks what the export worker needs: storage, a broker
// and optionally a spreadsheet. Token and HTTP settings are ignored.
func (c *Config) ValidateWorker() error {
	var errs []string
	errs = append(errs, c.storageErrors()...)
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the export worker")
	}
	errs = append(errs, c.amqpErrors()...)
	errs = append(errs, c.sheetsErrors()...)
	errs = append(errs, c.logErrors()...)
	return joinErrors(errs)
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) serverErrors() []string {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if !slices.Contains(validAlgorithms, c.JWTAlgorithm) {
		errs = append(errs, fmt.Sprintf("invalid JWT algorithm '%s': must be one of %v", c.JWTAlgorithm, validAlgorithms))
	}
	if c.JWTExpireMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("invalid JWT_EXPIRE_MINUTES %d: must be a positive integer", c.JWTExpireMinutes))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Sprintf("invalid BCRYPT_COST %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if len(c.CORSOriginList()) == 0 {
		errs = append(errs, "CORS_ORIGINS must be set (comma-separated origins)")
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}
	return errs
}

func (c *Config) storageErrors() []string {
	var errs []string
	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
		if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
			errs = append(errs, "SQLITE_DB_PATH cannot be empty when using sqlite backend")
		}
		// A connection string for a backend that is not selected is almost
		// always a missing DATA_BACKEND.
		for _, v := range []struct{ name, value string }{
			{"DATABASE_URL", c.DatabaseURL},
			{"MONGODB_URL", c.MongoDBURL},
			{"DATABASE_NAME", c.DatabaseName},
		} {
			if strings.TrimSpace(v.value) != "" {
				errs = append(errs, fmt.Sprintf("%s is set but DATA_BACKEND=%s does not use it", v.name, c.DataBackend))
			}
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, "DATABASE_URL is required when using postgres backend")
		} else if !hasScheme(c.DatabaseURL, "postgres", "postgresql") {
			errs = append(errs, "DATABASE_URL must be a postgres:// or postgresql:// URL when using postgres backend")
		}
		if strings.TrimSpace(c.MongoDBURL) != "" {
			errs = append(errs, "MONGODB_URL is set but DATA_BACKEND=postgres does not use it")
		}
	case "mongo":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, "DATABASE_URL (or MONGODB_URL) is required when using mongo backend")
		} else if !hasScheme(c.DatabaseURL, "mongodb", "mongodb+srv") {
			errs = append(errs, "DATABASE_URL must be a mongodb:// or mongodb+srv:// URL when using mongo backend")
		}
		if strings.TrimSpace(c.DatabaseName) == "" {
			errs = append(errs, "DATABASE_NAME is required when using mongo backend")
		}
	}
	return errs
}

func hasScheme(raw string, schemes ...string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && slices.Contains(schemes, u.Scheme)
}

func (c *Config) amqpErrors() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errs []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

func (c *Config) sheetsErrors() []string {
	if c.GoogleSpreadsheetID == "" {
		return nil
	}
	var errs []string
	if c.GoogleSheetName == "" {
		errs = append(errs, "GOOGLE_SHEET_NAME is required when GOOGLE_SPREADSHEET_ID is set")
	}
	if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
		errs = append(errs, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for ledger export")
	}
	return errs
}

func (c *Config) logErrors() []string {
	var errs []string
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}
	return errs
}

// TokenExpiry is JWT_EXPIRE_MINUTES as a duration.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

// CORSOriginList splits CORS_ORIGINS on commas, dropping blanks.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
