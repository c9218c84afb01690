// Package config provides functionality for managing configuration options
// for the server using command-line flags, a config file, a .env file and
// environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/realtyhub/realtyhub/internal/models"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageDisk  = "disk"
	StorageMinio = "minio"
)

// MinioOptions configures the object storage backend.
type MinioOptions struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
	// PublicURL is the base URL images are served from.
	PublicURL string `yaml:"publicURL"`
}

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `yaml:"address"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `yaml:"databaseDSN"`

	// JWTSecret signs session tokens. Required.
	JWTSecret string `yaml:"jwtSecret"`

	// SessionTTL is the lifetime of a session token and its cookie.
	SessionTTL time.Duration `yaml:"sessionTTL"`

	// CookieSecure forces the Secure attribute even behind plain HTTP.
	CookieSecure bool `yaml:"cookieSecure"`

	// CORSOrigin is the frontend origin allowed to send credentials.
	CORSOrigin string `yaml:"corsOrigin"`

	// UploadDir is the root of the disk image store.
	UploadDir string `yaml:"uploadDir"`

	// StorageBackend selects "disk" or "minio".
	StorageBackend string `yaml:"storageBackend"`

	Minio MinioOptions `yaml:"minio"`

	// RedisAddr enables rate limiting, session revocation and the chat relay.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	// LoginRateLimit is the number of auth attempts per IP per minute.
	LoginRateLimit int `yaml:"loginRateLimit"`

	// TrustedProxies lists the reverse proxies (IPs or CIDRs) whose
	// X-Forwarded-For header identifies the client for rate limiting.
	TrustedProxies []string `yaml:"trustedProxies"`

	// SessionRevocation denylists tokens on logout. Requires Redis.
	SessionRevocation bool `yaml:"sessionRevocation"`

	LogLevel string `yaml:"logLevel"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `yaml:"tlsCert"`
	TLSKey  string `yaml:"tlsKey"`

	// TombstoneInterval is how often failed file deletions are retried.
	TombstoneInterval time.Duration `yaml:"tombstoneInterval"`

	// Config is the path to the config file.
	Config string `yaml:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.JWTSecret, "s", "", "session signing secret")
	flag.DurationVar(&options.SessionTTL, "ttl", time.Hour, "session lifetime")
	flag.StringVar(&options.UploadDir, "u", "uploads", "upload directory")
	flag.StringVar(&options.StorageBackend, "storage", StorageDisk, "image storage backend: disk | minio")
	flag.StringVar(&options.RedisAddr, "r", "", "redis address")
	flag.IntVar(&options.LoginRateLimit, "login-limit", 10, "auth attempts per IP per minute")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
	flag.StringVar(&options.CORSOrigin, "cors", "http://localhost:3000", "allowed CORS origin")
	flag.DurationVar(&options.TombstoneInterval, "tombstone-interval", 10*time.Minute, "retry interval for failed file deletions")
	flag.StringVar(&options.Config, "config", "config.yaml", "path to config file")
	flag.StringVar(&options.Config, "c", "config.yaml", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the config file and environment
// variables, in that order, and validates the result.
func Parse() (*Options, error) {
	flag.Parse()

	// A missing .env file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := LoadFile(options.Config, options); err != nil {
		return nil, err
	}
	if err := ApplyEnv(options, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// LoadFile merges a YAML (or JSON) file into opts. A missing file is ignored.
func LoadFile(path string, opts *Options) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides opts with environment variables found by lookup.
func ApplyEnv(opts *Options, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SERVER_ADDRESS", &opts.Address)
	str("DATABASE_URL", &opts.DatabaseDSN)
	str("DATABASE_DSN", &opts.DatabaseDSN)
	str("JWT_SECRET", &opts.JWTSecret)
	duration("SESSION_TTL", &opts.SessionTTL)
	boolean("COOKIE_SECURE", &opts.CookieSecure)
	str("CORS_ORIGIN", &opts.CORSOrigin)
	str("UPLOAD_DIR", &opts.UploadDir)
	str("STORAGE_BACKEND", &opts.StorageBackend)
	str("MINIO_ENDPOINT", &opts.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &opts.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &opts.Minio.SecretKey)
	str("MINIO_BUCKET", &opts.Minio.Bucket)
	boolean("MINIO_USE_SSL", &opts.Minio.UseSSL)
	str("MINIO_PUBLIC_URL", &opts.Minio.PublicURL)
	str("REDIS_ADDR", &opts.RedisAddr)
	str("REDIS_PASSWORD", &opts.RedisPassword)
	boolean("SESSION_REVOCATION", &opts.SessionRevocation)
	str("LOG_LEVEL", &opts.LogLevel)
	str("TLS_CERT", &opts.TLSCert)
	str("TLS_KEY", &opts.TLSKey)
	duration("TOMBSTONE_INTERVAL", &opts.TombstoneInterval)
	if v, ok := lookup("TRUSTED_PROXIES"); ok && v != "" {
		opts.TrustedProxies = strings.Split(v, ",")
	}
	if v, ok := lookup("LOGIN_RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err))
		} else {
			opts.LoginRateLimit = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports configuration that must stop the process at start.
func (o *Options) Validate() error {
	if o.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required", models.ErrServerMisconfiguration)
	}
	switch o.StorageBackend {
	case StorageDisk:
	case StorageMinio:
		if o.Minio.Endpoint == "" || o.Minio.Bucket == "" {
			return fmt.Errorf("%w: minio endpoint and bucket are required", models.ErrServerMisconfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", models.ErrServerMisconfiguration, o.StorageBackend)
	}
	if o.SessionTTL <= 0 || o.TombstoneInterval <= 0 {
		return fmt.Errorf("%w: session TTL and tombstone interval must be positive", models.ErrServerMisconfiguration)
	}
	if o.SessionRevocation && o.RedisAddr == "" {
		return fmt.Errorf("%w: session revocation requires REDIS_ADDR", models.ErrServerMisconfiguration)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("%w: both TLS cert and key must be set", models.ErrServerMisconfiguration)
	}
	return nil
}

// TLSEnabled reports whether the server should serve HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
