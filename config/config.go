package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"mynotes/pkg/logger"
)

// DefaultFile is the config path looked up under the XDG config directories.
const DefaultFile = "mynotes/config.toml"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	AI       AIConfig       `toml:"ai"`
	Auth     AuthConfig     `toml:"auth"`
	Upload   UploadConfig   `toml:"upload"`
	LogLevel string         `toml:"log_level"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
}

// DatabaseConfig either carries a full URL or the discrete parts the
// hosted database hands out (user, password, host, port, dbname).
type DatabaseConfig struct {
	URL        string `toml:"url"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Host       string `toml:"host"`
	Port       string `toml:"port"`
	Name       string `toml:"name"`
	SSLMode    string `toml:"sslmode"`
	Retries    int    `toml:"retries"`
	RetryDelay string `toml:"retry_delay"`
	Migrate    bool   `toml:"migrate"`
}

type AIConfig struct {
	Provider    string  `toml:"provider"` // "openai" (default) or "gemini"
	Model       string  `toml:"model"`
	OpenAIKey   string  `toml:"openai_api_key"`
	GeminiKey   string  `toml:"gemini_api_key"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// UploadConfig uses a tagged union: Backend selects which fields apply.
type UploadConfig struct {
	Backend   string `toml:"backend"` // "disk" (default) or "s3"
	Dir       string `toml:"dir"`
	URLPrefix string `toml:"url_prefix"`
	MaxBytes  int64  `toml:"max_bytes"`

	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3PublicURL string `toml:"s3_public_url,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", CORSOrigin: "*"},
		Database: DatabaseConfig{
			SSLMode:    "require",
			Retries:    5,
			RetryDelay: "2s",
		},
		AI: AIConfig{
			Provider:    "openai",
			Temperature: 0.7,
			MaxTokens:   300,
		},
		Upload: UploadConfig{
			Backend:   "disk",
			Dir:       "public/uploads",
			URLPrefix: "/uploads",
			MaxBytes:  32 << 20,
		},
		LogLevel: "info",
	}
}

// Read decodes a TOML config on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load builds the runtime configuration: defaults, then the TOML file (the
// explicit path, or the XDG default when present), then .env, then the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if found, err := xdg.SearchConfigFile(DefaultFile); err == nil {
			path = found
		}
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if cfg, err = Read(f); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		logger.Sugar.Debug("No .env file found, using environment variables from OS")
	}
	applyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("DATABASE_URL", &cfg.Database.URL)
	str("user", &cfg.Database.User)
	str("password", &cfg.Database.Password)
	str("host", &cfg.Database.Host)
	str("port", &cfg.Database.Port)
	str("dbname", &cfg.Database.Name)

	str("AI_PROVIDER", &cfg.AI.Provider)
	str("AI_MODEL", &cfg.AI.Model)
	str("OPENAI_API_KEY", &cfg.AI.OpenAIKey)
	str("GEMINI_API_KEY", &cfg.AI.GeminiKey)

	str("SUPABASE_JWT_SECRET", &cfg.Auth.JWTSecret)

	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	str("CORS_ORIGIN", &cfg.Server.CORSOrigin)

	str("UPLOAD_BACKEND", &cfg.Upload.Backend)
	str("UPLOAD_DIR", &cfg.Upload.Dir)
	str("S3_BUCKET", &cfg.Upload.S3Bucket)
	str("S3_REGION", &cfg.Upload.S3Region)
	str("S3_PREFIX", &cfg.Upload.S3Prefix)
	str("S3_PUBLIC_URL", &cfg.Upload.S3PublicURL)

	str("LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("DB_MIGRATE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.Migrate = b
		}
	}
}

func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown ai provider: %s", c.AI.Provider)
	}
	switch c.Upload.Backend {
	case "disk":
		if c.Upload.Dir == "" {
			return errors.New("disk upload backend requires upload.dir to be set")
		}
	case "s3":
		if c.Upload.S3Bucket == "" {
			return errors.New("s3 upload backend requires upload.s3_bucket to be set")
		}
	default:
		return fmt.Errorf("unknown upload backend: %s", c.Upload.Backend)
	}
	if _, err := c.Database.Delay(); err != nil {
		return fmt.Errorf("invalid database.retry_delay: %w", err)
	}
	if _, err := c.AI.RequestTimeout(); err != nil {
		return fmt.Errorf("invalid ai.timeout: %w", err)
	}
	return nil
}

// DSN returns the postgres connection string, or "" when no datastore is configured.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	port := d.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, port, d.Name, d.SSLMode)
}

func (d DatabaseConfig) Delay() (time.Duration, error) {
	if d.RetryDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(d.RetryDelay)
}

// APIKey returns the credential for the selected provider.
func (a AIConfig) APIKey() string {
	if a.Provider == "gemini" {
		return a.GeminiKey
	}
	return a.OpenAIKey
}

// RequestTimeout is zero (transport default) unless configured.
func (a AIConfig) RequestTimeout() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}
