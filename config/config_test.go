package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")

	if cfg.Server.Address != ":8003" {
		t.Fatalf("server address = %q", cfg.Server.Address)
	}
	if cfg.Agents.TopK != 6 {
		t.Fatalf("top_k = %d", cfg.Agents.TopK)
	}
	if cfg.Analysis.CutoffDate != "2024-06-07" {
		t.Fatalf("cutoff = %q", cfg.Analysis.CutoffDate)
	}
	if cfg.Analysis.BinDays != 14 || cfg.Analysis.SpikeSigma != 2.0 {
		t.Fatalf("analysis defaults = %+v", cfg.Analysis)
	}
	if cfg.Analysis.MaxSnippets != 3 || cfg.Analysis.MaxPromptWords != 1500 {
		t.Fatalf("analysis caps = %+v", cfg.Analysis)
	}
	if cfg.Storage.SessionStore != "inmemory" {
		t.Fatalf("session store = %q", cfg.Storage.SessionStore)
	}
	if cfg.Storage.SessionTTL != 30*time.Minute {
		t.Fatalf("session ttl = %v", cfg.Storage.SessionTTL)
	}
	if len(cfg.Retrieval.Community) == 0 || len(cfg.Retrieval.News) == 0 || len(cfg.Retrieval.Music) == 0 {
		t.Fatalf("collection defaults missing")
	}
}

func TestRedisConfigAddr(t *testing.T) {
	r := RedisConfig{Host: "localhost", Port: "6379"}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := r.Addr(); got != "localhost:6379" {
		t.Fatalf("Addr = %q", got)
	}
}

func TestPostgresDSNFromParts(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "limelight", SSLMode: "disable"}
	if !p.Configured() {
		t.Fatalf("expected configured")
	}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	if dsn != "postgres://u:p@db:5433/limelight?sslmode=disable" {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestPostgresNotConfigured(t *testing.T) {
	if (PostgresConfig{}).Configured() {
		t.Fatalf("empty postgres config must not count as configured")
	}
}
