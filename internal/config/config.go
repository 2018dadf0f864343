// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/tournament-history/internal/upload"
	"github.com/joho/godotenv"
)

const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

type Config struct {
	Host           string
	Port           int
	BasePath       string
	DataFolder     string
	UploadFolder   string
	MaxUploadBytes int64
	Production     bool
	LogFormat      string
	CORSOrigins    []string

	UploadBackend     string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string
}

// LoadDefaults fills in the development settings.
func (c *Config) LoadDefaults() {
	c.Host = "0.0.0.0"
	c.Port = 5001
	c.BasePath = ""
	c.DataFolder = "data"
	c.UploadFolder = "uploads"
	c.MaxUploadBytes = upload.MaxUploadBytes
	c.Production = false
	c.LogFormat = "text"
	c.UploadBackend = BackendDisk
	c.S3Region = "auto"
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load applies defaults, then a .env file if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HOST", &c.Host)
	str("DATA_FOLDER", &c.DataFolder)
	str("UPLOAD_FOLDER", &c.UploadFolder)
	str("LOG_FORMAT", &c.LogFormat)
	str("UPLOAD_BACKEND", &c.UploadBackend)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY_ID", &c.S3AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.S3SecretAccessKey)
	str("S3_PUBLIC_BASE_URL", &c.S3PublicBaseURL)

	if v, ok := lookup("BASE_PATH"); ok {
		c.BasePath = NormalizeBasePath(v)
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT environment variable: %w", err)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
		}
		c.Port = port
	}

	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES environment variable: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", n)
		}
		c.MaxUploadBytes = n
	}

	if v, ok := lookup("APP_ENV"); ok {
		c.Production = strings.EqualFold(strings.TrimSpace(v), "production")
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}

	switch c.UploadBackend {
	case BackendDisk:
	case BackendS3:
		if c.S3Bucket == "" || c.S3PublicBaseURL == "" {
			return fmt.Errorf("UPLOAD_BACKEND=s3 requires S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	return nil
}

// NormalizeBasePath turns "tournament/", "/tournament" and "/tournament/" into
// "/tournament". An empty or "/" prefix becomes "".
func NormalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
