package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vidfriends/mediadeck/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MEDIADECK_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 {
		t.Fatalf("unexpected port %d", cfg.AppPort)
	}
	if cfg.Site.Timeout != 20*time.Second {
		t.Fatalf("unexpected site timeout %v", cfg.Site.Timeout)
	}
	if cfg.Preferences.BoltPath != "mediadeck.db" {
		t.Fatalf("unexpected bolt path %q", cfg.Preferences.BoltPath)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mediadeck.yaml")
	contents := `
port: 9090
site:
  base_url: https://file.example.com
  timeout: 5s
recommend:
  lookup_cache_ttl: 10m
  tags_url: https://tags.example.com
links:
  - name: chat
    url: https://chat.example.com
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MEDIADECK_CONFIG", path)
	t.Setenv("MEDIADECK_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 7070 {
		t.Fatalf("expected env to override file port got %d", cfg.AppPort)
	}
	if cfg.Site.BaseURL != "https://file.example.com" {
		t.Fatalf("unexpected base url %q", cfg.Site.BaseURL)
	}
	if cfg.Site.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.Site.Timeout)
	}
	if cfg.Recommend.LookupCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected lookup ttl %v", cfg.Recommend.LookupCacheTTL)
	}
	if cfg.Recommend.TagsURL != "https://tags.example.com" {
		t.Fatalf("unexpected tags url %q", cfg.Recommend.TagsURL)
	}
	want := []models.Link{{Name: "chat", URL: "https://chat.example.com"}}
	if diff := cmp.Diff(want, cfg.Links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRememberRequiresSecret(t *testing.T) {
	t.Setenv("MEDIADECK_CONFIG", "")
	t.Setenv("MEDIADECK_REMEMBER_LOGIN", "true")
	t.Setenv("MEDIADECK_SEALING_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when remembering without a secret")
	}
}

func TestParseLinks(t *testing.T) {
	links, err := parseLinks("chat=https://chat.example.com, forum=https://forum.example.com")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(links) != 2 || links[1].Name != "forum" {
		t.Fatalf("unexpected links %+v", links)
	}
	if _, err := parseLinks("broken"); err == nil {
		t.Fatal("expected error for malformed link")
	}
}
