package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Google   GoogleConfig   `yaml:"google"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Push     PushConfig     `yaml:"push"`
	Redis    RedisConfig    `yaml:"redis"`
	Upload   UploadConfig   `yaml:"upload"`
	Notice   NoticeConfig   `yaml:"notice"`
	Frontend FrontendConfig `yaml:"frontend"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds the S3-compatible object storage configuration (Cloudflare R2 in production)
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// Configured reports whether every value needed to talk to the bucket is present.
func (c *AWSConfig) Configured() bool {
	return c.Region != "" && c.S3Bucket != "" && c.AccessKey != "" && c.SecretKey != "" &&
		c.Endpoint != "" && c.PublicBase() != ""
}

// PublicBase returns the base of public object URLs without a trailing slash.
func (c *AWSConfig) PublicBase() string {
	base := c.PublicURL
	if base == "" {
		base = c.Endpoint
	}
	return strings.TrimSuffix(base, "/")
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// GoogleConfig holds the Google OAuth client
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// SpotifyConfig holds the Spotify client-credentials pair used for track lookups
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// PushConfig holds Web Push (VAPID) and APNs settings
type PushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key"`
	Subscriber      string        `yaml:"subscriber"`
	Timeout         time.Duration `yaml:"timeout"`
	APNs            APNsConfig    `yaml:"apns"`
}

// APNsConfig holds token-based APNs authentication
type APNsConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// RedisConfig holds the Redis connection used for OAuth state
type RedisConfig struct {
	URL string `yaml:"url"`
}

// UploadConfig holds image upload policy
type UploadConfig struct {
	ReencodeJPEG bool `yaml:"reencode_jpeg"`
	MaxDimension int  `yaml:"max_dimension"`
	JPEGQuality  int  `yaml:"jpeg_quality"`
}

// NoticeConfig holds the notice period policy
type NoticeConfig struct {
	Timezone string `yaml:"timezone"`
}

// FrontendConfig holds the browser origin
type FrontendConfig struct {
	URL          string `yaml:"url"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// Load reads configuration from a YAML file. A missing file is not an error when
// the environment supplies the required values.
func Load(path string) (*Config, error) {
	// .env is optional in every environment
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.DBName, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.JWT.Secret, "JWT_SECRET")

	setString(&c.AWS.AccessKey, "R2_ACCESS_KEY_ID")
	setString(&c.AWS.SecretKey, "R2_SECRET_ACCESS_KEY")
	setString(&c.AWS.Endpoint, "R2_ENDPOINT")
	setString(&c.AWS.Region, "R2_REGION")
	setString(&c.AWS.S3Bucket, "R2_BUCKET_NAME")
	setString(&c.AWS.PublicURL, "R2_PUBLIC_URL")

	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")

	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")

	setString(&c.Push.VAPIDPublicKey, "VAPID_PUBLIC_KEY")
	setString(&c.Push.VAPIDPrivateKey, "VAPID_PRIVATE_KEY")

	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Frontend.URL, "FRONTEND_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 24804
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Push.Timeout == 0 {
		c.Push.Timeout = 10 * time.Second
	}
	if c.Push.Subscriber == "" {
		c.Push.Subscriber = "mailto:admin@localhost"
	}
	if c.Upload.MaxDimension == 0 {
		c.Upload.MaxDimension = 2048
	}
	if c.Upload.JPEGQuality == 0 {
		c.Upload.JPEGQuality = 85
	}
	if c.Notice.Timezone == "" {
		c.Notice.Timezone = "UTC"
	}
	if c.Frontend.URL == "" {
		c.Frontend.URL = "http://localhost:3000"
	}
}

// Validate checks values the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if _, err := time.LoadLocation(c.Notice.Timezone); err != nil {
		return fmt.Errorf("invalid notice timezone %q: %w", c.Notice.Timezone, err)
	}
	return nil
}

// Location returns the fixed timezone notice periods are computed in
func (c *NoticeConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
