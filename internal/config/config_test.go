package config

import (
	"testing"
	"time"

	"github.com/Simplici0/meshquote/internal/estimate"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{FileEnvVar, "APP_ENV", "PORT", "DB_PATH", "LOG_LEVEL", "AUTO_MIGRATE", "MAX_UPLOAD_BYTES", "MAX_TRIANGLES", "ESTIMATE_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, Defaults())
	}
	if !cfg.IsDev() {
		t.Fatalf("expected dev environment by default")
	}
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "meshquote.toml", `
env = "prod"
port = "9000"
max_triangles = 1000
estimate_timeout = "2s"

[print]
layer_height = 0.3
quality_preset = "high"
`)
	t.Setenv(FileEnvVar, path)
	t.Setenv("PORT", "9100")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "prod" || cfg.IsDev() {
		t.Fatalf("Env = %q, want prod", cfg.Env)
	}
	if cfg.Port != "9100" {
		t.Fatalf("Port = %q, want env override 9100", cfg.Port)
	}
	if cfg.MaxTriangles != 1000 {
		t.Fatalf("MaxTriangles = %d, want 1000", cfg.MaxTriangles)
	}
	if cfg.EstimateTimeout.Duration != 2*time.Second {
		t.Fatalf("EstimateTimeout = %v, want 2s", cfg.EstimateTimeout)
	}
	if cfg.AutoMigrate {
		t.Fatalf("AutoMigrate should be disabled by env")
	}
	if cfg.Print.LayerHeight != 0.3 || cfg.Print.QualityPreset != estimate.High {
		t.Fatalf("Print = %+v", cfg.Print)
	}
	if cfg.Print.WallThickness != estimate.DefaultConfig().WallThickness {
		t.Fatalf("unset print fields should keep defaults, got %+v", cfg.Print)
	}
	if cfg.DBPath != defaultDBPath {
		t.Fatalf("DBPath = %q, want default", cfg.DBPath)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"max upload not a number", "MAX_UPLOAD_BYTES", "lots"},
		{"max upload zero", "MAX_UPLOAD_BYTES", "0"},
		{"max triangles not a number", "MAX_TRIANGLES", "1e3x"},
		{"timeout without unit", "ESTIMATE_TIMEOUT", "10"},
		{"auto migrate not a bool", "AUTO_MIGRATE", "sometimes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestLoad_InvalidPrintDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnvVar, writeFile(t, "bad.toml", "[print]\ninfill_percent = 150\n"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for infill_percent = 150")
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnvVar, "/nonexistent/meshquote.toml")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoad_AutoMigrateFollowsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AutoMigrate {
		t.Fatalf("AutoMigrate should default to off outside dev")
	}

	t.Setenv(FileEnvVar, writeFile(t, "migrate.toml", "auto_migrate = true\n"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("AutoMigrate set in the config file should win")
	}
}
