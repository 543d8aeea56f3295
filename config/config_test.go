package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", conf.Addr)
	}
	if conf.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want info", conf.SlogLevel())
	}
	if conf.RemoteEnabled() {
		t.Error("RemoteEnabled with no API key")
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "addr: \":9090\"\nlogLevel: debug\nopenai:\n  apiKey: file-key\n  model: gpt-4o\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("FORMEASE_ADDR", "")

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if conf.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", conf.Addr)
	}
	if conf.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", conf.SlogLevel())
	}
	if conf.OpenAI.APIKey != "env-key" {
		t.Errorf("APIKey = %q, env should override file", conf.OpenAI.APIKey)
	}
	if conf.OpenAI.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", conf.OpenAI.Model)
	}
	if !conf.RemoteEnabled() {
		t.Error("RemoteEnabled = false with API key set")
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if conf.Addr != ":8080" {
		t.Errorf("Addr = %q, want defaults", conf.Addr)
	}
}

func TestSlogLevelNames(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for name, want := range cases {
		c := Config{LogLevel: name}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
