package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("READ_TIMEOUT", "10s")
	t.Setenv("WRITE_TIMEOUT", "20s")
	t.Setenv("IDLE_TIMEOUT", "30s")
	t.Setenv("TRANSCRIBE_TIMEOUT", "5m")
	t.Setenv("RATE_LIMIT_RPM", "10")
	t.Setenv("ASSEMBLYAI_API_KEY", "  secret  ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FETCH_FALLBACK", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("expected 9090, got %s", cfg.ServerPort)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("expected 10s, got %s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 20*time.Second {
		t.Errorf("expected 20s, got %s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %s", cfg.IdleTimeout)
	}
	if cfg.Transcription.Timeout != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.Transcription.Timeout)
	}
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Errorf("expected 10, got %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Transcription.APIKey != "secret" {
		t.Errorf("expected trimmed api key, got %q", cfg.Transcription.APIKey)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Media.EnableFallback {
		t.Error("expected fallback to be disabled")
	}
}

func TestLoadConfig_InvalidValuesUseDefaults(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_RPM", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %s", cfg.ReadTimeout)
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("expected default 30, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.ServerPort = "" }, true},
		{"zero transcribe timeout", func(c *Config) { c.Transcription.Timeout = 0 }, true},
		{"extension without dot", func(c *Config) { c.Media.TargetExt = "m4a" }, true},
		{"history without path", func(c *Config) { c.Database.Path = "" }, true},
		{"history disabled without path", func(c *Config) {
			c.Database.Enabled = false
			c.Database.Path = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ServerPort:    "8000",
				ReadTimeout:   time.Second,
				WriteTimeout:  time.Second,
				IdleTimeout:   time.Second,
				Media:         MediaConfig{TargetExt: ".m4a", FetchTimeout: time.Second},
				Transcription: TranscriptionConfig{Timeout: time.Second},
				Database:      DatabaseConfig{Enabled: true, Path: "/tmp/runs.db"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("YT_TRANSCRIBE_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("YT_TRANSCRIBE_TEST_KEY") })

	LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("YT_TRANSCRIBE_TEST_KEY"); got != "from-file" {
		t.Errorf("expected value from env file, got %q", got)
	}
}
