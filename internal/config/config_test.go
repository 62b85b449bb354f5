package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "batch" {
		t.Errorf("Expected default mode to be 'batch', got '%s'", cfg.Mode)
	}

	if cfg.IEPFolder != "ieps" {
		t.Errorf("Expected default IEP folder to be 'ieps', got '%s'", cfg.IEPFolder)
	}

	if cfg.OutputFolder != "audit" {
		t.Errorf("Expected default output folder to be 'audit', got '%s'", cfg.OutputFolder)
	}

	if cfg.ReferenceFolder != "input/_REFERENCE" {
		t.Errorf("Expected default reference folder to be 'input/_REFERENCE', got '%s'", cfg.ReferenceFolder)
	}

	if cfg.Extractor != "pdftotext" {
		t.Errorf("Expected default extractor to be 'pdftotext', got '%s'", cfg.Extractor)
	}

	if cfg.ExtractTimeout != 30*time.Second {
		t.Errorf("Expected default extract timeout to be 30s, got %s", cfg.ExtractTimeout)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.ServerName != "iep-deep-dive" {
		t.Errorf("Expected default server name to be 'iep-deep-dive', got '%s'", cfg.ServerName)
	}
}

func validBatch() *Config {
	cfg := DefaultConfig()
	cfg.Student = "10147287"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid batch config", mutate: func(*Config) {}},
		{name: "valid batch all", mutate: func(c *Config) { c.Student = ""; c.All = true }},
		{name: "valid stdio without student", mutate: func(c *Config) { c.Mode = ModeStdio; c.Student = "" }},
		{name: "valid native extractor", mutate: func(c *Config) { c.Extractor = ExtractorNative; c.Pdftotext = "" }},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "server" },
			wantErr: "mode must be either 'batch' or 'stdio'",
		},
		{
			name:    "batch without target",
			mutate:  func(c *Config) { c.Student = "" },
			wantErr: "batch mode requires --student or --all",
		},
		{
			name:    "student and all",
			mutate:  func(c *Config) { c.All = true },
			wantErr: "mutually exclusive",
		},
		{
			name:    "empty IEP folder",
			mutate:  func(c *Config) { c.IEPFolder = "" },
			wantErr: "IEP folder cannot be empty",
		},
		{
			name:    "empty output folder",
			mutate:  func(c *Config) { c.OutputFolder = "" },
			wantErr: "output folder cannot be empty",
		},
		{
			name:    "unknown extractor",
			mutate:  func(c *Config) { c.Extractor = "ocr" },
			wantErr: "invalid extractor: ocr",
		},
		{
			name:    "empty pdftotext binary",
			mutate:  func(c *Config) { c.Pdftotext = "" },
			wantErr: "pdftotext binary cannot be empty",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.ExtractTimeout = 0 },
			wantErr: "extract timeout must be positive",
		},
		{
			name:    "negative max file size",
			mutate:  func(c *Config) { c.MaxFileSize = -1 },
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: "invalid log level: trace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBatch()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Config.Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigLogLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel slog.Level
		wantDebug bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validBatch()
			cfg.LogLevel = tt.level
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Config.Validate() unexpected error: %v", err)
			}
			if got := cfg.SlogLevel(); got != tt.wantLevel {
				t.Errorf("Config.SlogLevel() = %v, want %v", got, tt.wantLevel)
			}
			if got := cfg.IsDebug(); got != tt.wantDebug {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := validBatch()
	str := cfg.String()

	for _, want := range []string{
		"Mode: batch",
		"Student: 10147287",
		"All: false",
		"IEPFolder: ieps",
		"Extractor: pdftotext",
		"ExtractTimeout: 30s",
		"LogLevel: info",
		"MaxFileSize: 104857600",
	} {
		if !strings.Contains(str, want) {
			t.Errorf("Config.String() = %q, want it to contain %q", str, want)
		}
	}
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsBatchMode() || cfg.IsStdioMode() {
		t.Errorf("default config should be batch mode, got %s", cfg.Mode)
	}

	cfg.Mode = ModeStdio
	if cfg.IsBatchMode() || !cfg.IsStdioMode() {
		t.Errorf("expected stdio mode, got %s", cfg.Mode)
	}
}
