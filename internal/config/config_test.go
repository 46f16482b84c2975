package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"todo/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
	dir := t.TempDir()

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected api url %q, got %q", config.DefaultAPIURL, cfg.APIURL)
	}
	if cfg.LogLevel != config.DefaultLogLevel {
		t.Errorf("expected log level %q, got %q", config.DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Listen != config.DefaultListen {
		t.Errorf("expected listen %q, got %q", config.DefaultListen, cfg.Listen)
	}
}

func TestNew_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	content := "api_url = \"https://todo.example.com/\"\nlog_level = \"info\"\nlisten = \"127.0.0.1:4000\"\n"
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://todo.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.LogLevel != "info" || cfg.Listen != "127.0.0.1:4000" {
		t.Errorf("file values not applied: %+v", cfg)
	}

	t.Setenv(config.EnvAPIURL, "http://override:9000")
	cfg, err = config.New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://override:9000" {
		t.Errorf("expected env override, got %q", cfg.APIURL)
	}
}

func TestNew_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("api_url = ["), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatal("expected error for malformed config.toml")
	}
}

func TestSetAPIURL(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := cfg.SetAPIURL("ftp://nope"); err == nil {
		t.Error("expected error for non-http scheme")
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("failed override must keep previous value, got %q", cfg.APIURL)
	}
	if err := cfg.SetAPIURL("https://api.example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	cfg := &config.Config{LogLevel: "warn"}
	if got := cfg.EffectiveLogLevel(); got != "warn" {
		t.Errorf("expected warn, got %q", got)
	}
	cfg.Debug = true
	if got := cfg.EffectiveLogLevel(); got != "debug" {
		t.Errorf("expected debug, got %q", got)
	}
}

func TestPaths(t *testing.T) {
	cfg := &config.Config{Dir: "/tmp/todo"}
	cases := map[string]string{
		cfg.CredentialsPath(): "/tmp/todo/credentials.db",
		cfg.CookiesPath():     "/tmp/todo/cookies.json",
		cfg.OAuthClientPath(): "/tmp/todo/oauth_client.json",
		cfg.GoogleTokenPath(): "/tmp/todo/google_token.json",
		cfg.FilePath():        "/tmp/todo/config.toml",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
