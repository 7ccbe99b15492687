package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
gateway:
  port: 9090
storage:
  driver: memory
llm:
  model: test-model
orders:
  status: completed
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 9090 {
		t.Fatalf("gateway port = %d, want 9090", cfg.Gateway.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver = %q", cfg.Storage.Driver)
	}
	if cfg.LLM.Model != "test-model" {
		t.Fatalf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 200 {
		t.Fatalf("llm max tokens default = %d, want 200", cfg.LLM.MaxTokens)
	}
	if cfg.Chat.HistoryWindow != 10 {
		t.Fatalf("history window default = %d, want 10", cfg.Chat.HistoryWindow)
	}
	if cfg.Redis.ReplayTTL != 24*time.Hour {
		t.Fatalf("replay ttl = %v", cfg.Redis.ReplayTTL)
	}
	if cfg.Orders.Status != "completed" {
		t.Fatalf("orders status = %q", cfg.Orders.Status)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SHOPBOT_LLM_API_KEY", "secret")
	t.Setenv("SHOPBOT_STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Fatalf("api key = %q, want env value", cfg.LLM.APIKey)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver = %q, want memory", cfg.Storage.Driver)
	}
}

func TestLoad_RejectsUnknownOrderStatus(t *testing.T) {
	t.Setenv("SHOPBOT_ORDERS_STATUS", "shipped")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unknown order status")
	}
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "shop"}
	want := "u:p@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local"
	if got := c.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
