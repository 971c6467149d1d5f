// Package config loads almanac configuration: a YAML file, then ALMANAC_*
// environment overrides, then validation against an embedded CUE schema.
//
// Every setting has a default, so an absent file is not an error. The
// search section is turned into the explicit resolve.Config and
// querysql.Mapping values the interpreter and store are constructed with.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Database Database `yaml:"database" json:"database"`
	Redis    Redis    `yaml:"redis" json:"redis"`
	Server   Server   `yaml:"server" json:"server"`
	Logging  Logging  `yaml:"logging" json:"logging"`
	Search   Search   `yaml:"search" json:"search"`
}

// Database selects the knowledgebase connection.
type Database struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Redis configures the optional existence cache. An empty Addr disables it.
type Redis struct {
	Addr     string `yaml:"addr" json:"addr,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	DB       int    `yaml:"db" json:"db"`
	TTL      string `yaml:"ttl" json:"ttl"`
}

// Enabled reports whether a redis address is configured.
func (r Redis) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// TTLDuration returns the parsed cache TTL.
func (r Redis) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(r.TTL)
	return d
}

// Server configures the HTTP search service.
type Server struct {
	Addr string `yaml:"addr" json:"addr"`
	// RateLimit is the sustained request rate per second. Zero disables
	// limiting.
	RateLimit   float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst       int     `yaml:"burst" json:"burst"`
	ReadTimeout string  `yaml:"read_timeout" json:"read_timeout"`
}

// ReadTimeoutDuration returns the parsed read timeout.
func (s Server) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.ReadTimeout)
	return d
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Column is one backing column of a category.
type Column struct {
	Column string `yaml:"column" json:"column"`
	Match  string `yaml:"match" json:"match,omitempty"`
}

// Search configures interpretation and the category-to-column mapping.
// Empty lists fall back to the built-in defaults.
type Search struct {
	Precedence     []string            `yaml:"precedence" json:"precedence,omitempty"`
	Window         string              `yaml:"window" json:"window"`
	TagMiss        string              `yaml:"tag_miss" json:"tag_miss"`
	Columns        map[string][]Column `yaml:"columns" json:"columns,omitempty"`
	AttributeNames []string            `yaml:"attribute_names" json:"attribute_names,omitempty"`
	AttributeValue string              `yaml:"attribute_value" json:"attribute_value"`
	GeneType       string              `yaml:"gene_type" json:"gene_type"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database: Database{Driver: "sqlite3", DSN: "almanac.db"},
		Redis:    Redis{DB: 0, TTL: "10m"},
		Server: Server{
			Addr:        ":8080",
			RateLimit:   20,
			Burst:       40,
			ReadTimeout: "10s",
		},
		Logging: Logging{Level: "info", Format: "text"},
		Search: Search{
			Window:         "longest",
			TagMiss:        "token",
			AttributeValue: "exact",
			GeneType:       "gene",
		},
	}
}

// Load reads path (if non-empty), applies environment overrides from the
// process environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the
// environment, then validates.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LookupFunc looks up an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from ALMANAC_* variables. List values are
// comma separated.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("ALMANAC_DATABASE_DRIVER", &c.Database.Driver)
	str("ALMANAC_DATABASE_DSN", &c.Database.DSN)
	str("ALMANAC_REDIS_ADDR", &c.Redis.Addr)
	str("ALMANAC_REDIS_PASSWORD", &c.Redis.Password)
	str("ALMANAC_REDIS_TTL", &c.Redis.TTL)
	str("ALMANAC_SERVER_ADDR", &c.Server.Addr)
	str("ALMANAC_SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	str("ALMANAC_LOG_LEVEL", &c.Logging.Level)
	str("ALMANAC_LOG_FORMAT", &c.Logging.Format)
	str("ALMANAC_SEARCH_WINDOW", &c.Search.Window)
	str("ALMANAC_SEARCH_TAG_MISS", &c.Search.TagMiss)
	str("ALMANAC_SEARCH_GENE_TYPE", &c.Search.GeneType)
	list("ALMANAC_SEARCH_PRECEDENCE", &c.Search.Precedence)

	if v, ok := lookup("ALMANAC_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALMANAC_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v, ok := lookup("ALMANAC_SERVER_RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ALMANAC_SERVER_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = f
	}
	if v, ok := lookup("ALMANAC_SERVER_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALMANAC_SERVER_BURST: %w", err)
		}
		c.Server.Burst = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
