package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const (
	dirName    = "noticectl"
	fileName   = "config.json"
	dirPerms   = 0700
	filePerms  = 0600
	DefaultURL = "http://localhost:8080"

	// DirEnv overrides the directory the config file lives in.
	DirEnv = "NOTICECTL_CONFIG_DIR"
)

// Config is what noticectl remembers between runs.
type Config struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	OrgName   string `json:"org_name,omitempty"`
	OrgEmail  string `json:"org_email,omitempty"`
}

func Path() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return filepath.Join(dir, fileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load returns defaults when no config file exists yet.
func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return &Config{ServerURL: DefaultURL}, nil
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{ServerURL: DefaultURL}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultURL
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, filePerms)
}

// Clear forgets the session but keeps the server URL.
func Clear() error {
	cfg, err := Load()
	if err != nil {
		p, pathErr := Path()
		if pathErr != nil {
			return pathErr
		}
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return rmErr
		}
		return nil
	}
	cfg.Token = ""
	cfg.OrgName = ""
	cfg.OrgEmail = ""
	return Save(cfg)
}

func (c *Config) HasToken() bool {
	return c.Token != ""
}
