package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/metcalfc/limn/internal/catalog"
	"github.com/metcalfc/limn/internal/illustrate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.CatalogURL != catalog.DefaultURL {
		t.Errorf("CatalogURL = %s", cfg.CatalogURL)
	}
	if cfg.Quiet() != 1200*time.Millisecond {
		t.Errorf("Quiet() = %s, want 1.2s", cfg.Quiet())
	}
	if cfg.MinExcerpt != 200 {
		t.Errorf("MinExcerpt = %d, want 200", cfg.MinExcerpt)
	}
	if cfg.RelayURL != "" {
		t.Errorf("RelayURL should default to direct fetch, got %q", cfg.RelayURL)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"relay_url": "https://relay.example.com/",
		"illustration": {"model": "openai/gpt-image", "style": "watercolour"},
		"quiet_ms": 800
	}`)

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RelayURL != "https://relay.example.com/" {
		t.Errorf("RelayURL = %s", cfg.RelayURL)
	}
	if cfg.Illustration.Model != "openai/gpt-image" || cfg.Illustration.Style != "watercolour" {
		t.Errorf("illustration = %+v", cfg.Illustration)
	}
	if cfg.Illustration.BaseURL != illustrate.DefaultBaseURL {
		t.Error("unset base_url should keep the default")
	}
	if cfg.Quiet() != 800*time.Millisecond {
		t.Errorf("Quiet() = %s", cfg.Quiet())
	}
	if cfg.MinExcerpt != illustrate.MinExcerpt {
		t.Errorf("MinExcerpt = %d", cfg.MinExcerpt)
	}
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	cfg, err := Load(missing, false)
	if err != nil {
		t.Fatalf("optional missing file should not fail: %v", err)
	}
	if cfg != Defaults() {
		t.Error("missing file should yield defaults")
	}

	if _, err := Load(missing, true); err == nil {
		t.Error("required missing file should fail")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{"relay": "typo"}`)
	_, err := Load(path, true)
	if err == nil || !strings.Contains(err.Error(), "relay") {
		t.Errorf("expected unknown field error, got %v", err)
	}
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  Illustration
		env  map[string]string
		want string
	}{
		{"explicit key", Illustration{APIKey: "sk-file"}, map[string]string{DefaultAPIKeyEnv: "sk-env"}, "sk-file"},
		{"default env", Illustration{}, map[string]string{DefaultAPIKeyEnv: " sk-env \n"}, "sk-env"},
		{"custom env", Illustration{APIKeyEnv: "MY_KEY"}, map[string]string{"MY_KEY": "sk-mine"}, "sk-mine"},
		{"nothing", Illustration{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DefaultAPIKeyEnv, "")
			t.Setenv("MY_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := Config{Illustration: tt.cfg}
			if got := cfg.APIKey(); got != tt.want {
				t.Errorf("APIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if got := DefaultPath(); got != filepath.Join(dir, "limn", "config.json") {
		t.Errorf("DefaultPath() = %s", got)
	}
}

func TestServiceSettings(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "sk-env")
	s := Defaults().Service()
	if s.APIKey != "sk-env" || s.Model != illustrate.DefaultModel {
		t.Errorf("Service() = %+v", s)
	}
	o := Defaults().Orchestrator()
	if o.Quiet != illustrate.QuietPeriod || o.MinExcerpt != illustrate.MinExcerpt {
		t.Errorf("Orchestrator() = %+v", o)
	}
}
