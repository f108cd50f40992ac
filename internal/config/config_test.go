package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("WS_PATH", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("STATIC_DIR", "")
	t.Setenv("GCS_BUCKET", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.ServerPort)
	}
	if cfg.WSPath != "/ws/comments" {
		t.Errorf("Expected default WS path, got %s", cfg.WSPath)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Unexpected default origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example , https://b.example")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.ServerPort)
	}
	// 余分な空白は除去される
	if cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server_port: \"9000\"\nallowed_origins:\n  - https://file.example\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("File should override env, got %s", cfg.ServerPort)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://file.example" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	// ファイル側が空のフィールドは環境変数の値を維持する
	if cfg.Env != "production" {
		t.Errorf("Expected env to survive overlay, got %s", cfg.Env)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}
