// Package config loads and validates the engine's YAML configuration:
// default replicate counts per method, the scoring weight profiles,
// hard gate thresholds, and the result cache/service settings. Mirrors
// the teacher's "read file, unmarshal, then Validate()" discipline.
//
// Grounded on internal/config/providers.go.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/strategyci/internal/scoring"
)

// EngineDefaults holds the per-method replicate counts new bundles are
// built with unless a caller overrides them.
type EngineDefaults struct {
	BOuterDefault int `yaml:"b_outer_default"`
	BInnerDefault int `yaml:"b_inner_default"`
	MinBOuter     int `yaml:"min_b_outer"`
	MinBInner     int `yaml:"min_b_inner"`
	ConfidenceLvl float64 `yaml:"confidence_level"`

	TradingDaysPerYear float64 `yaml:"trading_days_per_year"`
	TradingHoursPerDay float64 `yaml:"trading_hours_per_day"`
}

// ScoringWeights mirrors scoring.Weights for YAML round-tripping.
type ScoringWeights struct {
	Ordering    float64 `yaml:"ordering"`
	Length      float64 `yaml:"length"`
	Stability   float64 `yaml:"stability"`
	Skew        float64 `yaml:"skew"`
	CenterShift float64 `yaml:"center_shift"`
}

// Gates mirrors scoring.Gates for YAML round-tripping.
type Gates struct {
	MinEffectiveB  int     `yaml:"min_effective_b"`
	MaxAbsZ0       float64 `yaml:"max_abs_z0"`
	MaxAbsAccel    float64 `yaml:"max_abs_accel"`
	MaxInnerFailRt float64 `yaml:"max_inner_fail_rate"`
}

// ResultCache configures internal/resultcache.
type ResultCache struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	TTLSecs  int    `yaml:"ttl_seconds"`
	Prefix   string `yaml:"key_prefix"`
}

// Service configures internal/service's HTTP listener.
type Service struct {
	Addr            string  `yaml:"addr"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateBurst       int     `yaml:"rate_burst"`
}

// Config is the top-level YAML document.
type Config struct {
	MasterSeed      uint64         `yaml:"master_seed"`
	Engine          EngineDefaults `yaml:"engine"`
	ReturnsWeights  ScoringWeights `yaml:"returns_weights"`
	RatioWeights    ScoringWeights `yaml:"ratio_weights"`
	Gates           Gates          `yaml:"gates"`
	ResultCache     ResultCache    `yaml:"result_cache"`
	Service         Service        `yaml:"service"`
}

// Default returns a Config populated with the same defaults the
// scoring package applies when no file is supplied.
func Default() Config {
	rw := scoring.DefaultReturnsWeights()
	qw := scoring.DefaultRatioWeights()
	g := scoring.DefaultGates()
	return Config{
		MasterSeed: 1,
		Engine: EngineDefaults{
			BOuterDefault: 2000, BInnerDefault: 200,
			MinBOuter: 2000, MinBInner: 100, ConfidenceLvl: 0.9,
			TradingDaysPerYear: 252.0, TradingHoursPerDay: 6.5,
		},
		ReturnsWeights: ScoringWeights{rw.Ordering, rw.Length, rw.Stability, rw.Skew, rw.CenterShift},
		RatioWeights:   ScoringWeights{qw.Ordering, qw.Length, qw.Stability, qw.Skew, qw.CenterShift},
		Gates:          Gates{g.MinEffectiveB, g.MaxAbsZ0, g.MaxAbsAccel, g.MaxInnerFailRt},
		ResultCache:    ResultCache{Enabled: false, Addr: "localhost:6379", TTLSecs: 3600, Prefix: "strategyci:ci:"},
		Service:        Service{Addr: ":8089", RateLimitPerSec: 5, RateBurst: 10},
	}
}

// Load reads and parses the YAML file at path, falling back to
// Default() field-by-field for anything the file leaves zero.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the system assumes hold:
// a usable confidence level, replicate floors of at least 100,
// non-negative scoring weights, a sane result-cache TTL when the cache
// is enabled, and a positive service rate limit.
func (c Config) Validate() error {
	if !(c.Engine.ConfidenceLvl > 0.5) || !(c.Engine.ConfidenceLvl < 1) {
		return fmt.Errorf("config: confidence_level must be in (0.5,1), got %v", c.Engine.ConfidenceLvl)
	}
	if c.Engine.MinBOuter < 100 {
		return fmt.Errorf("config: min_b_outer must be >= 100, got %d", c.Engine.MinBOuter)
	}
	if c.Engine.MinBInner < 100 {
		return fmt.Errorf("config: min_b_inner must be >= 100, got %d", c.Engine.MinBInner)
	}
	for _, w := range []ScoringWeights{c.ReturnsWeights, c.RatioWeights} {
		if w.Ordering < 0 || w.Length < 0 || w.Stability < 0 || w.Skew < 0 || w.CenterShift < 0 {
			return fmt.Errorf("config: scoring weights must be non-negative, got %+v", w)
		}
	}
	if c.ResultCache.Enabled {
		if c.ResultCache.Addr == "" {
			return fmt.Errorf("config: result_cache.addr required when result_cache.enabled")
		}
		if c.ResultCache.TTLSecs <= 0 {
			return fmt.Errorf("config: result_cache.ttl_seconds must be > 0, got %d", c.ResultCache.TTLSecs)
		}
	}
	if c.Service.RateLimitPerSec <= 0 {
		return fmt.Errorf("config: service.rate_limit_per_sec must be > 0, got %v", c.Service.RateLimitPerSec)
	}
	return nil
}

// ToScoringProfile converts c's weights/gates for class into a
// scoring.Profile.
func (c Config) ToScoringProfile(class scoring.StatisticClass) scoring.Profile {
	w := c.ReturnsWeights
	if class == scoring.ClassRatio {
		w = c.RatioWeights
	}
	return scoring.Profile{
		Class:   class,
		Weights: scoring.Weights{Ordering: w.Ordering, Length: w.Length, Stability: w.Stability, Skew: w.Skew, CenterShift: w.CenterShift},
		Gates: scoring.Gates{
			MinEffectiveB: c.Gates.MinEffectiveB, MaxAbsZ0: c.Gates.MaxAbsZ0,
			MaxAbsAccel: c.Gates.MaxAbsAccel, MaxInnerFailRt: c.Gates.MaxInnerFailRt,
		},
	}
}
