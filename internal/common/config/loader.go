// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mentionscope/internal/common/validation"
)

// Load reads the base runtime config, the environment overlay, and every
// configured business profile, merging profiles in order. Profile documents
// are schema-validated before they are unmarshaled.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := mergeProfiles(&cfg, cfg.Profiles); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := mergeProfiles(&cfg, cfg.Profiles); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// mergeProfiles reads each profile file in order and merges it into the
// business section. Later profiles override scalar values and extend maps,
// matching viper merge semantics. Each document is schema-validated first.
func mergeProfiles(cfg *Config, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	pv := viper.New()
	pv.SetConfigType("yaml")

	for i, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read profile %s: %w", path, err)
		}
		if err := validation.ValidateProfile(path, raw); err != nil {
			return err
		}

		pv.SetConfigFile(path)
		if i == 0 {
			err = pv.ReadInConfig()
		} else {
			err = pv.MergeInConfig()
		}
		if err != nil {
			return fmt.Errorf("failed to merge profile %s: %w", path, err)
		}
	}

	if err := pv.Unmarshal(&cfg.Business); err != nil {
		return fmt.Errorf("failed to unmarshal business profiles: %w", err)
	}
	return nil
}

// loadEnvFile loads .env from the usual locations, trying the project root
// last so tests run from nested packages still pick it up.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Fetch.Workers == 0 {
		cfg.Fetch.Workers = 6
	}
	if cfg.Fetch.TimeoutMs == 0 {
		cfg.Fetch.TimeoutMs = 30000
	}
	if cfg.Fetch.SlownessMs == 0 {
		cfg.Fetch.SlownessMs = 10000
	}

	if cfg.Cache.Store == "" {
		cfg.Cache.Store = "file"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "data/mentions.json"
	}
	if cfg.Cache.Key == "" {
		cfg.Cache.Key = "mentionscope:snapshot"
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}

	if cfg.Classifier.TimeoutMs == 0 {
		cfg.Classifier.TimeoutMs = 5000
	}

	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.Table == "" {
		cfg.Database.Postgres.Table = "market_ratings_history"
	}

	if cfg.Business.LookbackDays == 0 {
		cfg.Business.LookbackDays = 730
	}
	if cfg.Business.Balancer.MaxPasses == 0 {
		cfg.Business.Balancer.MaxPasses = 3
	}
	if cfg.Business.Balancer.MaxQueriesPerPass == 0 {
		cfg.Business.Balancer.MaxQueriesPerPass = 20
	}
	if cfg.Business.Balancer.MaxPerSource == 0 {
		cfg.Business.Balancer.MaxPerSource = 5
	}
	if len(cfg.Business.Templates) == 0 {
		cfg.Business.Templates = []string{"{actor} {geo} {term}"}
	}
}

// validateConfig validates critical configuration fields. A business
// configuration without a principal actor is allowed (the registry
// degrades to no attribution) but a selected store must be reachable
// by configuration.
func validateConfig(cfg *Config) error {
	switch cfg.Cache.Store {
	case "file":
		if cfg.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the file store")
		}
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis store")
		}
	case "elasticsearch":
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required for the elasticsearch store")
		}
	default:
		return fmt.Errorf("cache.store must be file, redis or elasticsearch, got %q", cfg.Cache.Store)
	}

	if cfg.Classifier.Enabled && cfg.Classifier.BaseURL == "" {
		return fmt.Errorf("classifier.base_url is required when the classifier is enabled")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when the history mirror is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when the history mirror is enabled")
		}
	}

	for name, src := range cfg.Business.Sources {
		switch src.StoreKind {
		case "", "app", "play":
		default:
			return fmt.Errorf("business.sources.%s.store_kind must be app, play or empty", name)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
