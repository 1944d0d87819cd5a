package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vidfriends/mediadeck/internal/models"
)

// Config captures the runtime configuration for mediadeck.
type Config struct {
	AppPort     int
	LogLevel    string
	Site        SiteConfig
	Recommend   RecommendConfig
	Preferences PreferenceConfig
	ObjectStore ObjectStoreConfig
	Links       []models.Link
}

// SiteConfig describes the primary media site.
type SiteConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// RecommendConfig describes the secondary recommendation site. TagsURL is
// the optional JSON tag recommendation service; empty disables it.
type RecommendConfig struct {
	BaseURL        string
	TagsURL        string
	Timeout        time.Duration
	LookupCacheTTL time.Duration
}

// PreferenceConfig selects where the last login and remembered credential live.
// DatabaseURL takes precedence over BoltPath when set; Namespace separates
// installations sharing one database.
type PreferenceConfig struct {
	BoltPath      string
	DatabaseURL   string
	Namespace     string
	MigrationDir  string
	RememberLogin bool
	SealingSecret string
}

// ObjectStoreConfig configures the snapshot archive bucket. Without a bucket
// snapshots are written below LocalDir.
type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	Prefix        string
	LocalDir      string
}

// fileConfig mirrors Config for YAML decoding; zero values leave defaults alone.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Site     struct {
		BaseURL           string        `yaml:"base_url"`
		UserAgent         string        `yaml:"user_agent"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"site"`
	Recommend struct {
		BaseURL        string        `yaml:"base_url"`
		TagsURL        string        `yaml:"tags_url"`
		Timeout        time.Duration `yaml:"timeout"`
		LookupCacheTTL time.Duration `yaml:"lookup_cache_ttl"`
	} `yaml:"recommend"`
	Preferences struct {
		BoltPath      string `yaml:"bolt_path"`
		DatabaseURL   string `yaml:"database_url"`
		Namespace     string `yaml:"namespace"`
		MigrationDir  string `yaml:"migrations"`
		RememberLogin *bool  `yaml:"remember_login"`
		SealingSecret string `yaml:"sealing_secret"`
	} `yaml:"preferences"`
	ObjectStore struct {
		Bucket        string `yaml:"bucket"`
		Region        string `yaml:"region"`
		Endpoint      string `yaml:"endpoint"`
		PublicBaseURL string `yaml:"public_base_url"`
		Prefix        string `yaml:"prefix"`
		LocalDir      string `yaml:"local_dir"`
	} `yaml:"object_store"`
	Links []models.Link `yaml:"links"`
}

// Load reads configuration from an optional YAML file named by MEDIADECK_CONFIG
// and then from environment variables, which take precedence.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("MEDIADECK_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.AppPort = getInt("MEDIADECK_PORT", cfg.AppPort)
	cfg.LogLevel = getString("MEDIADECK_LOG_LEVEL", cfg.LogLevel)

	cfg.Site.BaseURL = getString("MEDIADECK_SITE_URL", cfg.Site.BaseURL)
	cfg.Site.UserAgent = getString("MEDIADECK_SITE_USER_AGENT", cfg.Site.UserAgent)
	cfg.Site.Timeout = getDuration("MEDIADECK_SITE_TIMEOUT", cfg.Site.Timeout)
	cfg.Site.RequestsPerSecond = getFloat("MEDIADECK_SITE_RPS", cfg.Site.RequestsPerSecond)
	cfg.Site.Burst = getInt("MEDIADECK_SITE_BURST", cfg.Site.Burst)

	cfg.Recommend.BaseURL = getString("MEDIADECK_RECOMMEND_URL", cfg.Recommend.BaseURL)
	cfg.Recommend.TagsURL = getString("MEDIADECK_TAGS_URL", cfg.Recommend.TagsURL)
	cfg.Recommend.Timeout = getDuration("MEDIADECK_RECOMMEND_TIMEOUT", cfg.Recommend.Timeout)
	cfg.Recommend.LookupCacheTTL = getDuration("MEDIADECK_RECOMMEND_LOOKUP_TTL", cfg.Recommend.LookupCacheTTL)

	cfg.Preferences.BoltPath = getString("MEDIADECK_PREFS_PATH", cfg.Preferences.BoltPath)
	cfg.Preferences.DatabaseURL = getString("MEDIADECK_DATABASE_URL", cfg.Preferences.DatabaseURL)
	cfg.Preferences.Namespace = getString("MEDIADECK_PREFS_NAMESPACE", cfg.Preferences.Namespace)
	cfg.Preferences.MigrationDir = getString("MEDIADECK_MIGRATIONS", cfg.Preferences.MigrationDir)
	cfg.Preferences.RememberLogin = getBool("MEDIADECK_REMEMBER_LOGIN", cfg.Preferences.RememberLogin)
	cfg.Preferences.SealingSecret = getString("MEDIADECK_SEALING_SECRET", cfg.Preferences.SealingSecret)

	cfg.ObjectStore.Bucket = getString("MEDIADECK_S3_BUCKET", cfg.ObjectStore.Bucket)
	cfg.ObjectStore.Region = getString("MEDIADECK_S3_REGION", cfg.ObjectStore.Region)
	cfg.ObjectStore.Endpoint = getString("MEDIADECK_S3_ENDPOINT", cfg.ObjectStore.Endpoint)
	cfg.ObjectStore.PublicBaseURL = getString("MEDIADECK_S3_PUBLIC_BASE_URL", cfg.ObjectStore.PublicBaseURL)
	cfg.ObjectStore.Prefix = getString("MEDIADECK_S3_PREFIX", cfg.ObjectStore.Prefix)
	cfg.ObjectStore.LocalDir = getString("MEDIADECK_ARCHIVE_DIR", cfg.ObjectStore.LocalDir)

	if raw := os.Getenv("MEDIADECK_LINKS"); raw != "" {
		links, err := parseLinks(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.Links = links
	}

	if strings.TrimSpace(cfg.Site.BaseURL) == "" {
		return Config{}, fmt.Errorf("config: site base url is required")
	}
	if cfg.Preferences.RememberLogin && cfg.Preferences.SealingSecret == "" {
		return Config{}, fmt.Errorf("config: remembering the login requires a sealing secret")
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		AppPort:  8080,
		LogLevel: "info",
		Site: SiteConfig{
			BaseURL:           "https://media.example.com",
			UserAgent:         "mediadeck/1.0",
			Timeout:           20 * time.Second,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Recommend: RecommendConfig{
			BaseURL:        "https://recommend.example.com",
			Timeout:        20 * time.Second,
			LookupCacheTTL: time.Hour,
		},
		Preferences: PreferenceConfig{
			BoltPath:     "mediadeck.db",
			Namespace:    "default",
			MigrationDir: "migrations",
		},
		ObjectStore: ObjectStoreConfig{
			Region:   "us-east-1",
			Prefix:   "snapshots",
			LocalDir: "archive",
		},
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setInt(&cfg.AppPort, fc.Port)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.Site.BaseURL, fc.Site.BaseURL)
	setString(&cfg.Site.UserAgent, fc.Site.UserAgent)
	setDuration(&cfg.Site.Timeout, fc.Site.Timeout)
	if fc.Site.RequestsPerSecond > 0 {
		cfg.Site.RequestsPerSecond = fc.Site.RequestsPerSecond
	}
	setInt(&cfg.Site.Burst, fc.Site.Burst)
	setString(&cfg.Recommend.BaseURL, fc.Recommend.BaseURL)
	setString(&cfg.Recommend.TagsURL, fc.Recommend.TagsURL)
	setDuration(&cfg.Recommend.Timeout, fc.Recommend.Timeout)
	setDuration(&cfg.Recommend.LookupCacheTTL, fc.Recommend.LookupCacheTTL)
	setString(&cfg.Preferences.BoltPath, fc.Preferences.BoltPath)
	setString(&cfg.Preferences.DatabaseURL, fc.Preferences.DatabaseURL)
	setString(&cfg.Preferences.Namespace, fc.Preferences.Namespace)
	setString(&cfg.Preferences.MigrationDir, fc.Preferences.MigrationDir)
	if fc.Preferences.RememberLogin != nil {
		cfg.Preferences.RememberLogin = *fc.Preferences.RememberLogin
	}
	setString(&cfg.Preferences.SealingSecret, fc.Preferences.SealingSecret)
	setString(&cfg.ObjectStore.Bucket, fc.ObjectStore.Bucket)
	setString(&cfg.ObjectStore.Region, fc.ObjectStore.Region)
	setString(&cfg.ObjectStore.Endpoint, fc.ObjectStore.Endpoint)
	setString(&cfg.ObjectStore.PublicBaseURL, fc.ObjectStore.PublicBaseURL)
	setString(&cfg.ObjectStore.Prefix, fc.ObjectStore.Prefix)
	setString(&cfg.ObjectStore.LocalDir, fc.ObjectStore.LocalDir)
	if len(fc.Links) > 0 {
		cfg.Links = fc.Links
	}
	return nil
}

// parseLinks reads "name=url,name=url".
func parseLinks(raw string) ([]models.Link, error) {
	var links []models.Link
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, url, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return nil, fmt.Errorf("config: malformed link %q", part)
		}
		links = append(links, models.Link{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return links, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
