// Package config loads riftlens settings: built-in defaults, then an
// optional YAML file, then .env files, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Riot      RiotConfig      `yaml:"riot"`
	Models    ModelsConfig    `yaml:"models"`
	Cache     CacheConfig     `yaml:"cache"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Narrative NarrativeConfig `yaml:"narrative"`
	Training  TrainingConfig  `yaml:"training"`
}

type RiotConfig struct {
	APIKey         string        `yaml:"api_key"`
	Platform       string        `yaml:"platform"` // na1, euw1, kr, ...
	PerSecond      int           `yaml:"per_second"`
	PerTwoMinutes  int           `yaml:"per_two_minutes"`
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Consecutive failures before the circuit opens, and how long it stays open.
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

type ModelsConfig struct {
	Dir string `yaml:"dir"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // sqlite | redis
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	Prefix        string        `yaml:"prefix"`
}

type AnalysisConfig struct {
	MatchCount    int `yaml:"match_count"`
	MinNewMatches int `yaml:"min_new_matches"`
	Parallelism   int `yaml:"parallelism"`
}

type NarrativeConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type TrainingConfig struct {
	MinSamples      int     `yaml:"min_samples"`
	TestFraction    float64 `yaml:"test_fraction"`
	Trees           int     `yaml:"trees"`
	MaxDepth        int     `yaml:"max_depth"`
	LearningRate    float64 `yaml:"learning_rate"`
	Subsample       float64 `yaml:"subsample"`
	ColsampleByTree float64 `yaml:"colsample_bytree"`
	Seed            int64   `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Riot: RiotConfig{
			Platform:        "na1",
			PerSecond:       20,
			PerTwoMinutes:   100,
			MaxRetries:      3,
			RequestTimeout:  10 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Models: ModelsConfig{Dir: "models"},
		Cache: CacheConfig{
			Backend:   "sqlite",
			RedisAddr: "localhost:6379",
			TTL:       7 * 24 * time.Hour,
			Prefix:    "riftlens:analysis:",
		},
		Analysis: AnalysisConfig{
			MatchCount:    20,
			MinNewMatches: 3,
			Parallelism:   4,
		},
		Narrative: NarrativeConfig{
			Enabled:   true,
			Model:     "claude-sonnet-4-5",
			MaxTokens: 1024,
		},
		Training: TrainingConfig{
			MinSamples:      100,
			TestFraction:    0.2,
			Trees:           200,
			MaxDepth:        6,
			LearningRate:    0.05,
			Subsample:       0.8,
			ColsampleByTree: 0.8,
			Seed:            42,
		},
	}
}

// DotEnvPaths are tried in order; the first that loads wins.
var DotEnvPaths = []string{".env", "../.env"}

// Load builds the configuration. path may be empty. Missing .env files are
// not an error; a named YAML file that cannot be read is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	for _, p := range DotEnvPaths {
		// godotenv.Load never overrides variables already set in the process.
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.Trim(v, `"`)
		}
	}
	str("RIOT_API_KEY", &c.Riot.APIKey)
	str("RIFTLENS_RIOT_PLATFORM", &c.Riot.Platform)
	str("ANTHROPIC_API_KEY", &c.Narrative.APIKey)
	str("RIFTLENS_MODELS_DIR", &c.Models.Dir)
	str("RIFTLENS_CACHE_BACKEND", &c.Cache.Backend)
	str("RIFTLENS_REDIS_ADDR", &c.Cache.RedisAddr)
	str("RIFTLENS_REDIS_PASSWORD", &c.Cache.RedisPassword)

	if v, ok := lookup("RIFTLENS_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RIFTLENS_REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = n
	}
	if v, ok := lookup("RIFTLENS_MIN_NEW_MATCHES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RIFTLENS_MIN_NEW_MATCHES: %w", err)
		}
		c.Analysis.MinNewMatches = n
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Riot.PerSecond <= 0 || c.Riot.PerTwoMinutes <= 0 {
		errs = append(errs, errors.New("riot: rate limits must be positive"))
	}
	if c.Riot.MaxRetries < 0 {
		errs = append(errs, errors.New("riot: max_retries must not be negative"))
	}
	if c.Analysis.MinNewMatches < 1 {
		errs = append(errs, errors.New("analysis: min_new_matches must be at least 1"))
	}
	if c.Analysis.MatchCount < 1 || c.Analysis.MatchCount > 100 {
		errs = append(errs, errors.New("analysis: match_count must be in [1, 100]"))
	}
	switch c.Cache.Backend {
	case "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache: unknown backend %q", c.Cache.Backend))
	}
	if c.Training.TestFraction <= 0 || c.Training.TestFraction >= 1 {
		errs = append(errs, errors.New("training: test_fraction must be in (0, 1)"))
	}
	if c.Training.MinSamples < 2 {
		errs = append(errs, errors.New("training: min_samples must be at least 2"))
	}
	return errors.Join(errs...)
}
