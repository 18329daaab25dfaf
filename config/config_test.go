package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(func(string) string { return "" })
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.PageSize != 10 {
		t.Errorf("page size = %d, want 10", cfg.PageSize)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("session ttl = %v, want 12h", cfg.SessionTTL)
	}
	if cfg.CookieSecure {
		t.Error("cookie secure should default to false")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":          "9090",
		"PAGE_SIZE":     "25",
		"SESSION_TTL":   "30m",
		"COOKIE_SECURE": "true",
		"DB_PATH":       "/tmp/x.db",
	}
	cfg := FromEnv(func(k string) string { return env[k] })
	if cfg.Port != "9090" || cfg.PageSize != 25 || cfg.DBPath != "/tmp/x.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("session ttl = %v", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Error("cookie secure should be true")
	}
}

func TestFromEnvBadNumbersFallBack(t *testing.T) {
	env := map[string]string{"PAGE_SIZE": "-3", "SESSION_TTL": "soon"}
	cfg := FromEnv(func(k string) string { return env[k] })
	if cfg.PageSize != 10 {
		t.Errorf("page size = %d, want fallback 10", cfg.PageSize)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("session ttl = %v, want fallback", cfg.SessionTTL)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := AppConfig{Timezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Error("expected UTC fallback")
	}
}

func TestLoadReportsMissingEnvFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err == nil {
		t.Fatal("expected an error for a missing env file")
	}
	if cfg.Port == "" || cfg.PageSize <= 0 {
		t.Errorf("config should still be usable: %+v", cfg)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	if _, set := os.LookupEnv("SEED_FILE"); set {
		t.Skip("SEED_FILE set in the environment")
	}
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("SEED_FILE=fixtures/coop.yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SEED_FILE") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SeedFile != "fixtures/coop.yaml" {
		t.Errorf("seed file = %q", cfg.SeedFile)
	}
}
