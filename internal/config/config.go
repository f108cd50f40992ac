package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// サーバー設定
	ServerPort string `yaml:"server_port"`
	Env        string `yaml:"env"`

	// WebSocket設定
	WSPath string `yaml:"ws_path"`

	// CORS設定
	AllowedOrigins []string `yaml:"allowed_origins"`

	// 静的モックデータ設定
	StaticDir string `yaml:"static_dir"`

	// サムネイル用GCSバケット
	GCSBucket string `yaml:"gcs_bucket"`
}

// Load loads configuration from environment variables. When CONFIG_FILE
// points at a YAML file, values from the file override the environment.
func Load() (Config, error) {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "3001"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	wsPath := os.Getenv("WS_PATH")
	if wsPath == "" {
		wsPath = "/ws/comments"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "static"
	}

	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		bucket = "refract0r-assets"
	}

	cfg := Config{
		ServerPort:     serverPort,
		Env:            env,
		WSPath:         wsPath,
		AllowedOrigins: strings.Split(allowedOrigins, ","),
		StaticDir:      staticDir,
		GCSBucket:      bucket,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	for i := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(cfg.AllowedOrigins[i])
	}

	return cfg, nil
}

// applyFile overlays YAML values onto the config. Zero-value fields in
// the file leave the environment-derived values untouched.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if file.ServerPort != "" {
		c.ServerPort = file.ServerPort
	}
	if file.Env != "" {
		c.Env = file.Env
	}
	if file.WSPath != "" {
		c.WSPath = file.WSPath
	}
	if len(file.AllowedOrigins) > 0 {
		c.AllowedOrigins = file.AllowedOrigins
	}
	if file.StaticDir != "" {
		c.StaticDir = file.StaticDir
	}
	if file.GCSBucket != "" {
		c.GCSBucket = file.GCSBucket
	}

	return nil
}
