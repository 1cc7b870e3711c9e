package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:indorunners.db")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":8080" || cfg.JWTIssuer != "indorunners" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.AdminOwnershipScope {
		t.Fatal("ownership scope should default on")
	}
	if cfg.AccessTTL() != 4*time.Hour || cfg.QueryTimeout() != 5*time.Second {
		t.Fatalf("durations %v %v", cfg.AccessTTL(), cfg.QueryTimeout())
	}
	if cfg.MaxProofBytes != 5<<20 {
		t.Fatalf("max proof bytes = %d", cfg.MaxProofBytes)
	}
	if cfg.CorsOrigins != nil || cfg.AMQPURL != "" {
		t.Fatalf("optional values should be empty: %+v", cfg)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	if _, err := Load(); err == nil {
		t.Fatal("missing DATABASE_URL accepted")
	}
	t.Setenv("DATABASE_URL", "sqlite:x.db")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("missing JWT_SECRET accepted")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", " https://indorunners.id , ,http://localhost:3000")
	t.Setenv("ADMIN_OWNERSHIP_SCOPE", "false")
	t.Setenv("LOG_RETENTION_DAYS", "30")
	t.Setenv("QUERY_TIMEOUT_SECONDS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":9090" {
		t.Fatalf("addr = %s", cfg.Addr())
	}
	if len(cfg.CorsOrigins) != 2 || cfg.CorsOrigins[0] != "https://indorunners.id" {
		t.Fatalf("cors = %q", cfg.CorsOrigins)
	}
	if cfg.AdminOwnershipScope {
		t.Fatal("scope override ignored")
	}
	if cfg.LogRetentionDays != 7 {
		t.Fatalf("retention = %d, want clamped to 7", cfg.LogRetentionDays)
	}
	if cfg.QueryTimeout() != 2*time.Second {
		t.Fatalf("timeout = %v", cfg.QueryTimeout())
	}
}

func TestLoadBadValue(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TTL_SECONDS", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("non-numeric ttl accepted")
	}
}

func TestLoadEnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("AMQP_EXCHANGE=runners.test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AMQP_EXCHANGE", "")
	os.Unsetenv("AMQP_EXCHANGE")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AMQPExchange != "runners.test" {
		t.Fatalf("exchange = %q", cfg.AMQPExchange)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("missing explicit env file accepted")
	}
}
