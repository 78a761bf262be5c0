// Package registry holds the static configuration describing every external
// data source: category, enabled flag, cost tier, rate limits and the role
// bitset that governs what kind of output a bot built on the source may
// produce. The registry is loaded once at process start and read-only after.
package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Role is a bitset of output authorities a source grants.
type Role uint8

const (
	RoleCorePricing Role = 1 << iota
	RoleParetoConstraints
	RoleContextualBandit
	RoleSecondarySignal
)

var roleNames = map[string]Role{
	"core_pricing":       RoleCorePricing,
	"pareto_constraints": RoleParetoConstraints,
	"contextual_bandit":  RoleContextualBandit,
	"secondary_signal":   RoleSecondarySignal,
}

// Has reports whether all bits of r2 are set on r.
func (r Role) Has(r2 Role) bool { return r&r2 == r2 }

// ParseRoles folds a list of role names into a bitset.
func ParseRoles(names []string) (Role, error) {
	var r Role
	for _, n := range names {
		bit, ok := roleNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown role %q", n)
		}
		r |= bit
	}
	return r, nil
}

// Category of an external data source.
type Category string

const (
	CategoryExchangeMarketData Category = "exchange_market_data"
	CategoryChainExplorer      Category = "chain_explorer"
	CategoryRegulatory         Category = "regulatory"
	CategoryNewsMedia          Category = "news_media"
	CategoryWhaleTracking      Category = "whale_tracking"
	CategoryOptionsDerivatives Category = "options_derivatives"
)

// Source is an immutable descriptor of one external data source.
type Source struct {
	ID         string
	Name       string
	Category   Category
	Enabled    bool
	CostTier   string // free | keyed | paid
	Roles      Role
	RateLimit  int           // max requests per window
	RateWindow time.Duration // trailing window
	BaseURL    string
	APIKeyEnv  string // empty means no key needed
}

// SecondaryOnly reports whether every source in the set carries the
// secondary_signal role and none carries core_pricing or pareto_constraints.
// A bot built exclusively on such sources must never populate core metrics.
func SecondaryOnly(sources []Source) bool {
	if len(sources) == 0 {
		return false
	}
	for _, s := range sources {
		if !s.Roles.Has(RoleSecondarySignal) {
			return false
		}
		if s.Roles.Has(RoleCorePricing) || s.Roles.Has(RoleParetoConstraints) {
			return false
		}
	}
	return true
}

// Registry is the full source set. Immutable after construction.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

// New builds a registry from descriptors.
func New(sources []Source) (*Registry, error) {
	byID := make(map[string]Source, len(sources))
	for _, s := range sources {
		if s.ID == "" {
			return nil, fmt.Errorf("source with empty id")
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		if s.RateLimit <= 0 || s.RateWindow <= 0 {
			return nil, fmt.Errorf("source %s: rate limit and window must be positive", s.ID)
		}
		byID[s.ID] = s
	}
	return &Registry{sources: append([]Source(nil), sources...), byID: byID}, nil
}

// Get returns the descriptor for an id.
func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// All returns a copy of every descriptor.
func (r *Registry) All() []Source {
	return append([]Source(nil), r.sources...)
}

// Filter returns enabled sources matching every predicate.
func (r *Registry) Filter(preds ...func(Source) bool) []Source {
	var out []Source
next:
	for _, s := range r.sources {
		if !s.Enabled {
			continue
		}
		for _, p := range preds {
			if !p(s) {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

// InCategory predicate.
func InCategory(c Category) func(Source) bool {
	return func(s Source) bool { return s.Category == c }
}

// WithRole predicate: source carries all given role bits.
func WithRole(role Role) func(Source) bool {
	return func(s Source) bool { return s.Roles.Has(role) }
}

// IsSecondaryOnly predicate: the individual source grants no core authority.
func IsSecondaryOnly(s Source) bool {
	return SecondaryOnly([]Source{s})
}

// file schema

type fileSource struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Enabled    bool     `yaml:"enabled"`
	CostTier   string   `yaml:"cost_tier"`
	Roles      []string `yaml:"roles"`
	RateLimit  int      `yaml:"rate_limit"`
	WindowSecs int      `yaml:"window_secs"`
	BaseURL    string   `yaml:"base_url"`
	APIKeyEnv  string   `yaml:"api_key_env"`
}

type file struct {
	Sources []fileSource `yaml:"sources"`
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}
	sources := make([]Source, 0, len(f.Sources))
	for _, fs := range f.Sources {
		roles, err := ParseRoles(fs.Roles)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", fs.ID, err)
		}
		sources = append(sources, Source{
			ID:         fs.ID,
			Name:       fs.Name,
			Category:   Category(fs.Category),
			Enabled:    fs.Enabled,
			CostTier:   fs.CostTier,
			Roles:      roles,
			RateLimit:  fs.RateLimit,
			RateWindow: time.Duration(fs.WindowSecs) * time.Second,
			BaseURL:    fs.BaseURL,
			APIKeyEnv:  fs.APIKeyEnv,
		})
	}
	return New(sources)
}
