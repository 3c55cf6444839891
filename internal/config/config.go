// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: folbricht-routedns's cmd/routedns/config.go loadConfig
// (concatenate-then-decode) and its per-kind toml.Primitive deferred
// decode pattern (other_examples/), retargeted at the specification's
// §6.1 TOML shape.

// Package config loads and validates ZeroDNS's TOML configuration file
// into the filter registry, rule table, and server settings the rest of
// the program runs from.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/zerodns-io/zerodns/internal/filter"
	"github.com/zerodns-io/zerodns/internal/rules"
	"github.com/zerodns-io/zerodns/internal/wire"
)

const (
	defaultCacheSize   = 4096
	defaultNegMaxTTL   = 60
	defaultQueryTimeout = 5 * time.Second
)

// Global holds the `[global]` table: process-wide fallbacks.
type Global struct {
	Nameservers []string
}

// Server holds the `[server]` table.
type Server struct {
	Listen       string
	CacheSize    int    `toml:"cache_size"`
	NegMaxTTL    uint32 `toml:"neg_max_ttl"`
	QueryTimeout string `toml:"query_timeout"`
}

// FilterSpec holds one `[filters.<name>]` table: kind names a
// [filter.Constructor] registered in a [*filter.Registry]; Props is
// decoded by that constructor, not here.
type FilterSpec struct {
	Kind  string
	Props toml.Primitive
}

// RuleSpec holds one `[[rules]]` entry. Filter is the singular sugar
// form accepted for a one-element Filters list, per spec.md §9.
type RuleSpec struct {
	Domain  string
	Filter  string
	Filters []string
}

// Config is the fully decoded, not-yet-validated configuration file.
type Config struct {
	Global  Global
	Server  Server
	Filters map[string]FilterSpec
	Rules   []RuleSpec

	meta toml.MetaData
}

// Load reads and concatenates every file in paths (folbricht-routedns's
// multi-file config pattern) and decodes the result. Decode failures are
// always [wire.KindConfig] and abort startup; they are never deferred to
// query time.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, wire.Errorf(wire.KindConfig, "config.Load", fmt.Errorf("no configuration file given"))
	}

	var buf bytes.Buffer
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, wire.Errorf(wire.KindConfig, "config.Load", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	var cfg Config
	meta, err := toml.Decode(buf.String(), &cfg)
	if err != nil {
		return nil, wire.Errorf(wire.KindConfig, "config.Load", err)
	}
	cfg.meta = meta

	if cfg.Server.Listen == "" {
		return nil, wire.Errorf(wire.KindConfig, "config.Load", fmt.Errorf("server.listen is required"))
	}
	return &cfg, nil
}

// CacheSize returns the configured LRU size, defaulting to 4096.
func (c *Config) CacheSize() int {
	if c.Server.CacheSize > 0 {
		return c.Server.CacheSize
	}
	return defaultCacheSize
}

// NegMaxTTL returns the configured negative-cache TTL cap, defaulting to
// 60s, per spec.md §4.4.
func (c *Config) NegMaxTTL() uint32 {
	if c.Server.NegMaxTTL > 0 {
		return c.Server.NegMaxTTL
	}
	return defaultNegMaxTTL
}

// QueryTimeout returns the configured total per-query timeout,
// defaulting to 5s, per spec.md §5.
func (c *Config) QueryTimeout() (time.Duration, error) {
	if c.Server.QueryTimeout == "" {
		return defaultQueryTimeout, nil
	}
	d, err := time.ParseDuration(c.Server.QueryTimeout)
	if err != nil {
		return 0, wire.Errorf(wire.KindConfig, "config.QueryTimeout", err)
	}
	return d, nil
}

// BuildFilters constructs every `[filters.<name>]` entry through
// registry, keyed by name. An unknown kind, or any per-kind decode
// error, aborts with [wire.KindConfig] — this is where "unknown filter
// kind" is caught, since each kind owns its own validation.
func (c *Config) BuildFilters(registry *filter.Registry) (map[string]filter.Filter, error) {
	built := make(map[string]filter.Filter, len(c.Filters))
	for name, spec := range c.Filters {
		f, err := registry.Build(spec.Kind, spec.Props, c.meta)
		if err != nil {
			return nil, wire.Errorf(wire.KindConfig, "config.BuildFilters",
				fmt.Errorf("filter %q: %w", name, err))
		}
		built[name] = f
	}
	return built, nil
}

// BuildRuleTable resolves each rule's filter/filters sugar against the
// already-built filters map and compiles the result into a
// [*rules.Table]. A rule naming an unknown filter is a [wire.KindConfig]
// error.
func (c *Config) BuildRuleTable(filters map[string]filter.Filter) (*rules.Table, error) {
	compiled := make([]rules.Rule, len(c.Rules))
	for i, r := range c.Rules {
		names := r.Filters
		if len(names) == 0 && r.Filter != "" {
			names = []string{r.Filter}
		}
		if len(names) == 0 {
			return nil, wire.Errorf(wire.KindConfig, "config.BuildRuleTable",
				fmt.Errorf("rule %q names no filter", r.Domain))
		}
		for _, name := range names {
			if _, ok := filters[name]; !ok {
				return nil, wire.Errorf(wire.KindConfig, "config.BuildRuleTable",
					fmt.Errorf("rule %q references unknown filter %q", r.Domain, name))
			}
		}
		compiled[i] = rules.Rule{Domain: r.Domain, Filters: names}
	}
	return rules.Compile(compiled)
}
