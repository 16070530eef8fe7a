package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Auth.SessionTTL != 720*time.Hour {
		t.Errorf("expected 720h session TTL, got %s", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.RegistryDriver != RegistryMariaDB {
		t.Errorf("expected mariadb registry, got %q", cfg.Auth.RegistryDriver)
	}
	if cfg.Auth.SecretKey == "" {
		t.Error("expected dev secret key to be filled in")
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REGISTRY_DRIVER", "memory")
	t.Setenv("SEED_DEFAULT_USERS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.RegistryDriver != RegistryMemory {
		t.Errorf("expected memory registry, got %q", cfg.Auth.RegistryDriver)
	}
	if !cfg.Auth.SeedDefaultUsers {
		t.Error("expected seeding enabled")
	}
}

func TestLoad_RejectsUnknownRegistryDriver(t *testing.T) {
	t.Setenv("REGISTRY_DRIVER", "ldap")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown registry driver")
	}
}

func TestLoad_ProductionRequiresSecretKey(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("expected SECRET_KEY error, got %v", err)
	}
}

func TestLoad_ProductionRejectsMemoryRegistry(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("SECRET_KEY", strings.Repeat("k", 40))
	t.Setenv("REGISTRY_DRIVER", "memory")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for memory registry in production")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p@ss", Name: "crm"}
	dsn := d.DSN()
	if !strings.Contains(dsn, "tcp(db:3306)") {
		t.Errorf("expected default port appended, got %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime, got %q", dsn)
	}

	d.URL = "override"
	if d.DSN() != "override" {
		t.Errorf("expected DATABASE_URL override, got %q", d.DSN())
	}
}

func TestLoad_ProxyAndCORSLists(t *testing.T) {
	t.Setenv("BASE_URL", "https://crm.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://crm.example.com" {
		t.Errorf("expected CORS origins to default to BASE_URL, got %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) == 0 || cfg.TrustedProxies[0] != "127.0.0.0/8" {
		t.Errorf("unexpected default trusted proxies: %v", cfg.TrustedProxies)
	}

	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.1.0.0/16")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.1.0.0/16" {
		t.Errorf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}
