package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docindex"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Backend names.
const (
	BackendSQLite   = "sqlite"
	BackendChroma   = "chroma"
	BackendPostgres = "postgres"
)

// Embedder names.
const (
	EmbedderGemini = "gemini"
	EmbedderHash   = "hash"
)

// Config is the resolved runtime configuration of the CLI.
type Config struct {
	Backend    string `mapstructure:"backend"`
	DB         string `mapstructure:"db"`
	Collection string `mapstructure:"collection"`

	Chroma   ChromaConfig   `mapstructure:"chroma"`
	Postgres PostgresConfig `mapstructure:"postgres"`

	Embedder      string `mapstructure:"embedder"`
	EmbeddingDims int    `mapstructure:"embedding_dims"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`

	MetricsFile string `mapstructure:"metrics_file"`
}

// ChromaConfig holds Chroma credentials.
type ChromaConfig struct {
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
	Tenant   string `mapstructure:"tenant"`
	Database string `mapstructure:"database"`
}

// PostgresConfig holds the Postgres connection string.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// envBindings maps configuration keys to environment variables.
var envBindings = map[string]string{
	"backend":         "DOCINDEX_BACKEND",
	"db":              "DOCINDEX_DB",
	"collection":      "DOCINDEX_COLLECTION",
	"chroma.url":      "CHROMA_URL",
	"chroma.api_key":  "CHROMA_API_KEY",
	"chroma.tenant":   "CHROMA_TENANT",
	"chroma.database": "CHROMA_DATABASE",
	"postgres.dsn":    "DOCINDEX_POSTGRES_DSN",
	"embedder":        "DOCINDEX_EMBEDDER",
	"embedding_dims":  "DOCINDEX_EMBEDDING_DIMS",
	"gemini_api_key":  "GEMINI_API_KEY",
	"metrics_file":    "DOCINDEX_METRICS_FILE",
}

// LoadConfig builds a Config from defaults, an optional config file and the
// environment. When path is empty, ~/.docindex/config.{yaml,json,toml} is
// read if present.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, docindex.Errorf(docindex.EINVALID, "read config %q: %v", path, err)
		}
	} else if dir := configDir(); dir != "" {
		v.SetConfigName("config")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, docindex.Errorf(docindex.EINVALID, "read config: %v", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, docindex.Errorf(docindex.EINVALID, "unmarshal config: %v", err)
	}
	if cfg.Backend == "" {
		cfg.Backend = cfg.detectBackend()
	}
	if cfg.Embedder == "" {
		cfg.Embedder = EmbedderHash
		if cfg.GeminiAPIKey != "" {
			cfg.Embedder = EmbedderGemini
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", defaultDBPath())
	v.SetDefault("collection", "docindex")
	v.SetDefault("chroma.tenant", "default_tenant")
	v.SetDefault("chroma.database", "default_database")
	v.SetDefault("embedding_dims", 0)
}

// detectBackend picks chroma when Chroma credentials are present, postgres
// when a DSN is set, and the local sqlite file otherwise.
func (c *Config) detectBackend() string {
	switch {
	case c.Chroma.APIKey != "" || c.Chroma.URL != "":
		return BackendChroma
	case c.Postgres.DSN != "":
		return BackendPostgres
	default:
		return BackendSQLite
	}
}

// Validate enforces required values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DB == "" {
			return docindex.Errorf(docindex.EINVALID, "DOCINDEX_DB must be set for the sqlite backend")
		}
	case BackendChroma:
		if c.Chroma.APIKey == "" && c.Chroma.URL == "" {
			return docindex.Errorf(docindex.EINVALID, "CHROMA_API_KEY or CHROMA_URL must be set for the chroma backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return docindex.Errorf(docindex.EINVALID, "DOCINDEX_POSTGRES_DSN must be set for the postgres backend")
		}
	default:
		return docindex.Errorf(docindex.EINVALID, "unknown backend %q (want sqlite, chroma or postgres)", c.Backend)
	}
	switch c.Embedder {
	case EmbedderHash:
	case EmbedderGemini:
		if c.GeminiAPIKey == "" {
			return docindex.Errorf(docindex.EINVALID, "GEMINI_API_KEY must be set for the gemini embedder")
		}
	default:
		return docindex.Errorf(docindex.EINVALID, "unknown embedder %q (want gemini or hash)", c.Embedder)
	}
	if c.EmbeddingDims < 0 {
		return docindex.Errorf(docindex.EINVALID, "embedding_dims must not be negative")
	}
	if c.Collection == "" {
		return docindex.Errorf(docindex.EINVALID, "collection name required")
	}
	return nil
}

// LoadTargets reads crawl targets from a YAML, JSON or TOML file with a
// top-level "targets" list. Policy fields a target leaves unset take their
// values from docindex.DefaultCrawlPolicy.
func LoadTargets(path string) ([]*docindex.CrawlTarget, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, docindex.Errorf(docindex.EINVALID, "read targets %q: %v", path, err)
	}

	raw, ok := v.Get("targets").([]any)
	if !ok || len(raw) == 0 {
		return nil, docindex.Errorf(docindex.EINVALID, "targets file %q has no targets", path)
	}

	targets := make([]*docindex.CrawlTarget, 0, len(raw))
	for i, item := range raw {
		target := &docindex.CrawlTarget{Policy: docindex.DefaultCrawlPolicy()}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused: true,
			Result:      target,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(item); err != nil {
			return nil, docindex.Errorf(docindex.EINVALID, "target %d: %v", i, err)
		}
		if err := target.Validate(); err != nil {
			return nil, docindex.Errorf(docindex.EINVALID, "target %d: %s", i, docindex.ErrorMessage(err))
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docindex")
}

func defaultDBPath() string {
	dir := configDir()
	if dir == "" {
		return "docindex.db"
	}
	return filepath.Join(dir, "docindex.db")
}

// ensureDir creates the parent directory of the sqlite file.
func ensureDir(dbPath string) error {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
