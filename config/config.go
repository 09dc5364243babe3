package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`
	Env          string        `json:"env"`

	// Application paths
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`
	TempDir  string `json:"temp_dir"`

	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Database  DatabaseConfig  `json:"database"`
	Media     MediaConfig     `json:"media"`

	// Transcription provider
	Transcription TranscriptionConfig `json:"transcription"`

	// Object storage archive, disabled when Bucket is empty
	Spaces SpacesConfig `json:"spaces"`

	Version string `json:"version"`

	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled        bool   `json:"enabled"`
	Path           string `json:"path"`
	MaxConnections int    `json:"max_connections"`
}

type MediaConfig struct {
	YtDlpPath      string        `json:"ytdlp_path"`
	EnableFallback bool          `json:"enable_fallback"`
	FetchTimeout   time.Duration `json:"fetch_timeout"`
	TargetExt      string        `json:"target_ext"`
}

type TranscriptionConfig struct {
	APIKey  string        `json:"-"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

type SpacesConfig struct {
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// LoadDotEnv reads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logrus.WithError(err).WithField("path", p).Warn("Failed to load env file")
		}
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8000"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Minute),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),
		Env:          getEnv("ENV", "development"),

		LogDir:   getEnv("LOG_DIR", "/var/log/yt-transcribe"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TempDir:  getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "yt-transcribe")),

		Version: getEnv("VERSION", "1.0.0"),

		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		CORS: CORSConfig{
			Enabled: getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins: getEnvAsStringSlice(
				"CORS_ALLOWED_ORIGINS",
				[]string{"https://aistudio.contentedai.com"},
			),
			AllowedMethods:   getEnvAsStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{"X-Request-ID"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 5),
		},

		Database: DatabaseConfig{
			Enabled:        getEnvAsBool("HISTORY_ENABLED", true),
			Path:           getEnv("DB_PATH", "/var/lib/yt-transcribe/runs.db"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		},

		Media: MediaConfig{
			YtDlpPath:      getEnv("YTDLP_PATH", "yt-dlp"),
			EnableFallback: getEnvAsBool("FETCH_FALLBACK", true),
			FetchTimeout:   getEnvAsDuration("FETCH_TIMEOUT", 5*time.Minute),
			TargetExt:      getEnv("AUDIO_EXT", ".m4a"),
		},

		Transcription: TranscriptionConfig{
			APIKey:  strings.TrimSpace(getEnv("ASSEMBLYAI_API_KEY", "")),
			BaseURL: getEnv("ASSEMBLYAI_BASE_URL", ""),
			Timeout: getEnvAsDuration("TRANSCRIBE_TIMEOUT", 10*time.Minute),
		},

		Spaces: SpacesConfig{
			AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: getEnv("SPACES_SECRET_KEY", ""),
			Region:    getEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}

	if err := validateTimeouts(c); err != nil {
		return err
	}

	if c.Media.TargetExt == "" || !strings.HasPrefix(c.Media.TargetExt, ".") {
		return errors.Errorf("audio extension must start with a dot, got %q", c.Media.TargetExt)
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return errors.New("database path is required when history is enabled")
	}

	return nil
}

// IsProduction reports whether ENV selects production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// PrepareDirs creates the directories the service writes into.
func (c *Config) PrepareDirs() error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.TempDir, "temp directory"},
	}
	if c.Database.Enabled {
		paths = append(paths, struct {
			path string
			name string
		}{filepath.Dir(c.Database.Path), "database directory"})
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be positive")
	}
	if c.Transcription.Timeout <= 0 {
		return errors.New("transcribe timeout must be positive")
	}
	if c.Media.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		warnInvalid(key, value, defaultValue, "Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		warnInvalid(key, value, defaultValue, "Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		warnInvalid(key, value, defaultValue, "Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return defaultValue
}

func warnInvalid(key, value string, defaultValue any, msg string) {
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn(msg)
}
