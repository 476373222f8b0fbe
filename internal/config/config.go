// Package config loads limn's optional JSON configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/limn/internal/catalog"
	"github.com/metcalfc/limn/internal/illustrate"
)

const DefaultAPIKeyEnv = "OPENROUTER_API_KEY"

// Illustration configures the illustration service.
type Illustration struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
	Style     string `json:"style"`
}

// Config is the merged result of defaults, the config file and flags.
type Config struct {
	RelayURL     string       `json:"relay_url"`
	CatalogURL   string       `json:"catalog_url"`
	Illustration Illustration `json:"illustration"`
	QuietMS      int          `json:"quiet_ms"`
	MinExcerpt   int          `json:"min_excerpt"`
}

// Defaults returns a Config with every optional value filled in.
func Defaults() Config {
	return Config{
		CatalogURL: catalog.DefaultURL,
		Illustration: Illustration{
			BaseURL:   illustrate.DefaultBaseURL,
			Model:     illustrate.DefaultModel,
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		QuietMS:    int(illustrate.QuietPeriod / time.Millisecond),
		MinExcerpt: illustrate.MinExcerpt,
	}
}

// DefaultPath returns XDG_CONFIG_HOME/limn/config.json or
// ~/.config/limn/config.json.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "limn", "config.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "limn", "config.json")
}

// Load reads path over Defaults. A missing file is only an error when
// required is set, which callers use for an explicit -config flag.
func Load(path string, required bool) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var file Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return Merge(cfg, file), nil
}

// Merge overlays the non-zero values of over onto base.
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.RelayURL); s != "" {
		out.RelayURL = s
	}
	if s := strings.TrimSpace(over.CatalogURL); s != "" {
		out.CatalogURL = s
	}
	if over.Illustration.BaseURL != "" {
		out.Illustration.BaseURL = over.Illustration.BaseURL
	}
	if over.Illustration.Model != "" {
		out.Illustration.Model = over.Illustration.Model
	}
	if over.Illustration.APIKey != "" {
		out.Illustration.APIKey = over.Illustration.APIKey
	}
	if over.Illustration.APIKeyEnv != "" {
		out.Illustration.APIKeyEnv = over.Illustration.APIKeyEnv
	}
	if over.Illustration.Style != "" {
		out.Illustration.Style = over.Illustration.Style
	}
	if over.QuietMS > 0 {
		out.QuietMS = over.QuietMS
	}
	if over.MinExcerpt > 0 {
		out.MinExcerpt = over.MinExcerpt
	}
	return out
}

// APIKey returns the configured key, falling back to the environment.
func (c Config) APIKey() string {
	if c.Illustration.APIKey != "" {
		return c.Illustration.APIKey
	}
	env := c.Illustration.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Quiet returns the debounce period.
func (c Config) Quiet() time.Duration {
	return time.Duration(c.QuietMS) * time.Millisecond
}

// Orchestrator returns the timing options for the illustration orchestrator.
func (c Config) Orchestrator() illustrate.Options {
	return illustrate.Options{Quiet: c.Quiet(), MinExcerpt: c.MinExcerpt}
}

// Service returns settings for the illustration client.
func (c Config) Service() illustrate.Settings {
	return illustrate.Settings{
		BaseURL: c.Illustration.BaseURL,
		Model:   c.Illustration.Model,
		APIKey:  c.APIKey(),
		Style:   c.Illustration.Style,
	}
}
