// internal/common/config/config.go
package config

import (
	"fmt"
	"sort"
	"time"
)

// Config is the main application configuration struct. Runtime settings
// come from config.yaml (+ environment overlay); business settings come
// from the merged profile files and are the input to the config hash.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Profiles   []string         `mapstructure:"profiles"`

	Business BusinessConfig `mapstructure:"business"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// FetchConfig holds the concurrent fetch orchestrator settings.
type FetchConfig struct {
	Workers          int  `mapstructure:"workers"`
	TimeoutMs        int  `mapstructure:"timeout_ms"`           // per collector
	SlownessMs       int  `mapstructure:"slowness_ms"`          // note collectors slower than this
	ForceDiagnostics bool `mapstructure:"force_diagnostics"`
}

// Timeout returns the per-collector timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

// CacheConfig selects and parameterizes the snapshot store.
type CacheConfig struct {
	Store    string `mapstructure:"store"` // file | redis | elasticsearch
	Path     string `mapstructure:"path"`  // file store path
	Key      string `mapstructure:"key"`   // redis key / elasticsearch doc id
	TTLHours int    `mapstructure:"ttl_hours"`
}

type DatabaseConfig struct {
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// PostgresConfig parameterizes the optional ratings-history mirror.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Table    string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ClassifierConfig parameterizes the optional remote sentiment classifier.
type ClassifierConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// Timeout returns the classifier call timeout as a duration.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// --- Business Configuration (profile files, hashed) ---

// BusinessConfig is the merged business configuration. It is a pure value:
// the config hash is computed over its canonical JSON form.
type BusinessConfig struct {
	Principal    ActorEntry             `mapstructure:"principal" json:"principal"`
	Actors       []ActorEntry           `mapstructure:"actors" json:"actors,omitempty"`
	Aliases      map[string][]string    `mapstructure:"aliases" json:"aliases,omitempty"`
	Geographies  []GeoEntry             `mapstructure:"geographies" json:"geographies,omitempty"`
	Sources      map[string]SourceEntry `mapstructure:"sources" json:"sources,omitempty"`
	AppActors    map[string]string      `mapstructure:"app_actors" json:"appActors,omitempty"`
	PkgActors    map[string]string      `mapstructure:"package_actors" json:"packageActors,omitempty"`
	Vocabulary   VocabularyEntry        `mapstructure:"vocabulary" json:"vocabulary"`
	Balancer     BalancerEntry          `mapstructure:"balancer" json:"balancer"`
	Templates    []string               `mapstructure:"query_templates" json:"queryTemplates,omitempty"`
	LookbackDays int                    `mapstructure:"lookback_days" json:"lookbackDays,omitempty"`
}

// ActorEntry describes one tracked actor and its name variants.
type ActorEntry struct {
	Name    string   `mapstructure:"name" json:"name"`
	Aliases []string `mapstructure:"aliases" json:"aliases,omitempty"`
	Geos    []string `mapstructure:"geos" json:"geos,omitempty"` // empty = global
}

// GeoEntry describes one geography/market bucket.
type GeoEntry struct {
	Name          string   `mapstructure:"name" json:"name"`
	Aliases       []string `mapstructure:"aliases" json:"aliases,omitempty"`
	Domains       []string `mapstructure:"domains" json:"domains,omitempty"` // site domains implying this geo
	AllowedActors []string `mapstructure:"allowed_actors" json:"allowedActors,omitempty"`
}

// SourceEntry describes per-source pipeline behavior.
type SourceEntry struct {
	Enabled         bool   `mapstructure:"enabled" json:"enabled"`
	ActorRequired   bool   `mapstructure:"actor_required" json:"actorRequired,omitempty"`
	ContextRequired bool   `mapstructure:"context_required" json:"contextRequired,omitempty"`
	SupportsQuery   bool   `mapstructure:"supports_query" json:"supportsQuery,omitempty"`
	StoreKind       string `mapstructure:"store_kind" json:"storeKind,omitempty"` // app | play | ""
	AlwaysNegative  bool   `mapstructure:"always_negative" json:"alwaysNegative,omitempty"`
}

// VocabularyEntry is the curated domain vocabulary for sentiment and
// context filtering.
type VocabularyEntry struct {
	Triggers []string `mapstructure:"triggers" json:"triggers,omitempty"`

	// Ordered negative phrase categories, strongest first.
	Security []string `mapstructure:"security" json:"security,omitempty"`
	Outage   []string `mapstructure:"outage" json:"outage,omitempty"`
	Pricing  []string `mapstructure:"pricing" json:"pricing,omitempty"`
	Support  []string `mapstructure:"support" json:"support,omitempty"`

	// Ordered positive phrase categories, strongest first.
	FeeRelief    []string `mapstructure:"fee_relief" json:"feeRelief,omitempty"`
	Compensation []string `mapstructure:"compensation" json:"compensation,omitempty"`
	Restored     []string `mapstructure:"restored" json:"restored,omitempty"`
	Improvement  []string `mapstructure:"improvement" json:"improvement,omitempty"`

	PositiveTokens []string `mapstructure:"positive_tokens" json:"positiveTokens,omitempty"`
	NegativeTokens []string `mapstructure:"negative_tokens" json:"negativeTokens,omitempty"`

	ContextTerms []string `mapstructure:"context_terms" json:"contextTerms,omitempty"`
	NoiseTerms   []string `mapstructure:"noise_terms" json:"noiseTerms,omitempty"`
	GuardActors  []string `mapstructure:"guard_actors" json:"guardActors,omitempty"`
}

// BalancerEntry holds the coverage balancer targets and caps.
type BalancerEntry struct {
	MinPerGeo         int `mapstructure:"min_per_geo" json:"minPerGeo,omitempty"`
	MinPerActor       int `mapstructure:"min_per_actor" json:"minPerActor,omitempty"`
	MaxPasses         int `mapstructure:"max_passes" json:"maxPasses,omitempty"`
	MaxQueriesPerPass int `mapstructure:"max_queries_per_pass" json:"maxQueriesPerPass,omitempty"`
	MaxPerSource      int `mapstructure:"max_per_source" json:"maxPerSource,omitempty"`
}

// EnabledSources returns the sorted-stable list of enabled source names.
func (b BusinessConfig) EnabledSources() []string {
	var out []string
	for name, src := range b.Sources {
		if src.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SourceFor returns the source entry and whether it is configured.
func (b BusinessConfig) SourceFor(name string) (SourceEntry, bool) {
	src, ok := b.Sources[name]
	return src, ok
}
