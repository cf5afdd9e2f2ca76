// Package config loads forecastdb settings from an optional YAML file and
// FORECASTDB_* environment variables, then validates them against an
// embedded CUE schema.
//
// Environment variables name keys with underscores in place of dots:
// FORECASTDB_DATABASE_DSN sets database.dsn, FORECASTDB_PAGE_SIZE sets
// page_size. The environment wins over the file.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/roach88/forecastdb/internal/schema"
	"github.com/roach88/forecastdb/internal/store"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "FORECASTDB"

//go:embed schema.cue
var schemaCUE string

// Config is the complete forecastdb configuration.
type Config struct {
	Database Database `mapstructure:"database" json:"database"`
	Schema   Schema   `mapstructure:"schema" json:"schema"`
	PageSize int      `mapstructure:"page_size" json:"page_size"`
	Log      Log      `mapstructure:"log" json:"log"`
}

// Database configures the connection pool.
type Database struct {
	Driver       string `mapstructure:"driver" json:"driver"`
	DSN          string `mapstructure:"dsn" json:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" json:"max_idle_conns"`
}

// Schema names the database schemas holding structure and data tables.
// An empty name leaves tables unqualified.
type Schema struct {
	Structure string `mapstructure:"structure" json:"structure"`
	Data      string `mapstructure:"data" json:"data"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

var defaults = map[string]any{
	"database.driver":         "pgx",
	"database.dsn":            "",
	"database.max_open_conns": 8,
	"database.max_idle_conns": 2,
	"schema.structure":        schema.DefaultTables.Structure,
	"schema.data":             schema.DefaultTables.Data,
	"page_size":               1000,
	"log.level":               "info",
	"log.format":              "text",
}

// Load reads path (skipped when empty), overlays the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks c against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	def := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	val := def.Unify(ctx.Encode(c))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoreConfig returns the store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:       c.Database.Driver,
		DSN:          c.Database.DSN,
		MaxOpenConns: c.Database.MaxOpenConns,
		MaxIdleConns: c.Database.MaxIdleConns,
		Tables: schema.Tables{
			Structure: c.Schema.Structure,
			Data:      c.Schema.Data,
		},
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
