// Package config loads service settings from .env, an optional YAML file and
// the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Store       string `yaml:"store"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret string `yaml:"jwt_secret"`
	JWTAlg    string `yaml:"jwt_alg"`

	PublicBaseURL  string `yaml:"public_base_url"`
	MediaBackend   string `yaml:"media_backend"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MongoURI       string `yaml:"mongo_uri"`
	MongoDB        string `yaml:"mongo_db"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3BaseURL      string `yaml:"s3_public_base_url"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	OTelEnabled bool   `yaml:"otel_enabled"`
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	MediaGridFS = "gridfs"
	MediaS3     = "s3"
	MediaNone   = "none"
)

func defaults() Config {
	return Config{
		Port:           "8083",
		Store:          StorePostgres,
		JWTAlg:         "HS256",
		PublicBaseURL:  "http://localhost:8083",
		MaxUploadBytes: 10 << 20,
		MongoDB:        "portal",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the
// environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if cfg.MediaBackend == "" {
		cfg.MediaBackend = MediaNone
		if cfg.MongoURI != "" {
			cfg.MediaBackend = MediaGridFS
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PORT":               &c.Port,
		"STORE":              &c.Store,
		"DATABASE_URL":       &c.DatabaseURL,
		"JWT_SECRET":         &c.JWTSecret,
		"JWT_ALG":            &c.JWTAlg,
		"PUBLIC_BASE_URL":    &c.PublicBaseURL,
		"MEDIA_BACKEND":      &c.MediaBackend,
		"MONGO_URI":          &c.MongoURI,
		"MONGO_DB":           &c.MongoDB,
		"S3_BUCKET":          &c.S3Bucket,
		"S3_REGION":          &c.S3Region,
		"S3_PUBLIC_BASE_URL": &c.S3BaseURL,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_FORMAT":         &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("OTEL_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("OTEL_ENABLED: %w", err)
		}
		c.OTelEnabled = b
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	c.Store = strings.ToLower(c.Store)
	c.MediaBackend = strings.ToLower(c.MediaBackend)
	c.JWTAlg = strings.ToUpper(c.JWTAlg)
	return nil
}

// Validate checks that the settings needed by the selected backends are set.
func (c *Config) Validate() error {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch c.JWTAlg {
	case "HS256", "HS384", "HS512":
	default:
		problems = append(problems, "JWT_ALG must be HS256, HS384 or HS512")
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required")
		}
	case StoreMemory:
	default:
		problems = append(problems, "STORE must be postgres or memory")
	}
	switch c.MediaBackend {
	case MediaGridFS:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required for gridfs media")
		}
	case MediaS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			problems = append(problems, "S3_BUCKET and S3_REGION are required for s3 media")
		}
	case MediaNone:
	default:
		problems = append(problems, "MEDIA_BACKEND must be gridfs, s3 or none")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
