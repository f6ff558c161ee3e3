package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Media    MediaConfig    `yaml:"media"`
	Email    EmailConfig    `yaml:"email"`
	Push     PushConfig     `yaml:"push"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_mins"`
}

// ConnMaxLifetime returns the configured connection lifetime as a duration.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifeMins) * time.Minute
}

// RedisConfig holds Redis settings. Redis is optional; when the URL is empty
// the scheduler falls back to Postgres advisory locks and the dispatcher runs
// without pacing.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// MediaConfig holds upload storage configuration. Type is "s3" or "local";
// local storage serves files from LocalPath under /media and exists for
// development only.
type MediaConfig struct {
	Type           string `yaml:"type"`
	LocalPath      string `yaml:"local_path"`
	S3Bucket       string `yaml:"s3_bucket"`
	CDNDomain      string `yaml:"cdn_domain"`
	AWSRegion      string `yaml:"aws_region"`
	AWSProfile     string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	MaxImageSizeMB int    `yaml:"max_image_size_mb"`
	MaxVideoSizeMB int    `yaml:"max_video_size_mb"`
	BatchWorkers   int    `yaml:"batch_workers"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c MediaConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "" // Running on ECS or Lambda, use IAM role
	}
	return c.AWSProfile
}

// EmailConfig holds AWS SES sending configuration.
type EmailConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	FromName       string `yaml:"from_name"`
	FromEmail      string `yaml:"from_email"`
	ReplyTo        string `yaml:"reply_to"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PushConfig holds the webhook relay used for push notifications. When
// disabled, messages composed with push fan out over email only.
type PushConfig struct {
	Enabled        bool   `yaml:"enabled"`
	RelayURL       string `yaml:"relay_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c PushConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DispatchConfig holds notification dispatcher tuning.
type DispatchConfig struct {
	Workers             int `yaml:"workers"`
	BatchSize           int `yaml:"batch_size"`
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	SendsPerSecond      int `yaml:"sends_per_second"`
}

// PollInterval returns the dispatcher poll interval as a duration.
func (c DispatchConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// AuthConfig holds Google OAuth authentication configuration
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	AllowedDomain      string `yaml:"allowed_domain"`
	SessionSecret      string `yaml:"session_secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieMaxAge       int    `yaml:"cookie_max_age"`
}

// CORSConfig holds the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 5
	}
	if cfg.Media.Type == "" {
		cfg.Media.Type = "local"
	}
	if cfg.Media.LocalPath == "" {
		cfg.Media.LocalPath = "./data/media"
	}
	if cfg.Media.AWSRegion == "" {
		cfg.Media.AWSRegion = "af-south-1"
	}
	if cfg.Media.MaxImageSizeMB == 0 {
		cfg.Media.MaxImageSizeMB = 10
	}
	if cfg.Media.MaxVideoSizeMB == 0 {
		cfg.Media.MaxVideoSizeMB = 200
	}
	if cfg.Media.BatchWorkers == 0 {
		cfg.Media.BatchWorkers = 4
	}
	if cfg.Email.Region == "" {
		cfg.Email.Region = "af-south-1"
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 30
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "ConectOne"
	}
	if cfg.Push.TimeoutSeconds == 0 {
		cfg.Push.TimeoutSeconds = 15
	}
	if cfg.Dispatch.Workers == 0 {
		cfg.Dispatch.Workers = 5
	}
	if cfg.Dispatch.BatchSize == 0 {
		cfg.Dispatch.BatchSize = 50
	}
	if cfg.Dispatch.PollIntervalSeconds == 0 {
		cfg.Dispatch.PollIntervalSeconds = 5
	}
	if cfg.Dispatch.SendsPerSecond == 0 {
		cfg.Dispatch.SendsPerSecond = 25
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "conectone_session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 86400
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{
			"https://portal.conectone.co.za",
			"http://localhost:5173",
			"http://localhost:8080",
		}
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}

	// Media overrides
	if v := os.Getenv("MEDIA_S3_BUCKET"); v != "" {
		cfg.Media.S3Bucket = v
		cfg.Media.Type = "s3"
	}
	if v := os.Getenv("MEDIA_CDN_DOMAIN"); v != "" {
		cfg.Media.CDNDomain = v
	}
	if v := os.Getenv("MEDIA_AWS_REGION"); v != "" {
		cfg.Media.AWSRegion = v
	}

	// Email overrides
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.Email.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.Email.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.Email.Region = region
	}
	if v := os.Getenv("EMAIL_FROM_ADDRESS"); v != "" {
		cfg.Email.FromEmail = v
		cfg.Email.Enabled = true
	}

	// Push relay overrides
	if v := os.Getenv("PUSH_RELAY_URL"); v != "" {
		cfg.Push.RelayURL = v
		cfg.Push.Enabled = true
	}
	if v := os.Getenv("PUSH_RELAY_API_KEY"); v != "" {
		cfg.Push.APIKey = v
	}

	// Auth overrides
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.GoogleClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AUTH_ALLOWED_DOMAIN"); v != "" {
		cfg.Auth.AllowedDomain = v
	}

	return cfg, nil
}
