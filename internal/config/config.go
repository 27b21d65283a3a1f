// Package config loads autodoc's settings from a cascade of sources. Later sources override earlier ones:
//
//  1. built-in defaults
//  2. the nearest .autodoc.yaml, .autodoc.yml, or .autodoc.toml, searching from the working directory upward
//  3. the .env file in the working directory
//  4. the process environment
//
// Command-line flags are applied on top by the caller (see Config.Set). Every key remembers which source supplied its value (Config.Provenance), which `autodoc run`
// logs so users can tell why a setting took effect.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/codalotl/autodoc/internal/docgen"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Keys, as spelled in config files and in Config.Provenance.
const (
	KeyStrategy         = "strategy"
	KeyStyle            = "style"
	KeyModel            = "model"
	KeyAPIKey           = "api_key"
	KeyBaseURL          = "base_url"
	KeyWorkers          = "workers"
	KeyWrapWidth        = "wrap_width"
	KeyIndentWidth      = "indent_width"
	KeyMaxSnippetTokens = "max_snippet_tokens"
	KeyRequestTimeout   = "request_timeout"
	KeyRateLimit        = "rate_limit"
)

// Source names used in Config.Provenance for non-file sources.
const (
	SourceDefault = "default"
	SourceEnv     = "environment"
	SourceFlag    = "flag"
)

// envKeys maps environment variables (also read from .env) to config keys. Several variables may feed one key; the later entry wins.
var envKeys = []struct {
	name string
	key  string
}{
	{"AUTODOC_STRATEGY", KeyStrategy},
	{"AUTODOC_STYLE", KeyStyle},
	{"GROQ_MODEL_NAME", KeyModel},
	{"AUTODOC_MODEL", KeyModel},
	{"OPENAI_API_KEY", KeyAPIKey},
	{"GROQ_API_KEY", KeyAPIKey},
	{"AUTODOC_API_KEY", KeyAPIKey},
	{"AUTODOC_BASE_URL", KeyBaseURL},
	{"AUTODOC_WORKERS", KeyWorkers},
	{"AUTODOC_WRAP_WIDTH", KeyWrapWidth},
	{"AUTODOC_RATE_LIMIT", KeyRateLimit},
}

// FileNames are the config file names searched for, in preference order within one directory.
var FileNames = []string{".autodoc.yaml", ".autodoc.yml", ".autodoc.toml"}

// EnvFileName is the dotenv file read from the working directory.
const EnvFileName = ".env"

// Config is the resolved configuration.
type Config struct {
	Strategy         string
	Style            string
	Model            string
	APIKey           string
	BaseURL          string
	Workers          int
	WrapWidth        int
	IndentWidth      int
	MaxSnippetTokens int
	RequestTimeout   time.Duration
	RateLimit        float64 // LLM requests per second; 0 is unlimited

	// Provenance maps each key to the source of its value: SourceDefault, a file path, SourceEnv, or SourceFlag.
	Provenance map[string]string
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{
		Strategy:         docgen.StrategyMock,
		Style:            string(docgen.StyleGoogle),
		Workers:          1,
		IndentWidth:      4,
		MaxSnippetTokens: docgen.DefaultMaxSnippetTokens,
		RequestTimeout:   60 * time.Second,
		Provenance:       make(map[string]string),
	}
	for _, k := range Keys() {
		c.Provenance[k] = SourceDefault
	}
	return c
}

// Keys returns every config key, sorted.
func Keys() []string {
	keys := []string{KeyStrategy, KeyStyle, KeyModel, KeyAPIKey, KeyBaseURL, KeyWorkers, KeyWrapWidth, KeyIndentWidth, KeyMaxSnippetTokens, KeyRequestTimeout, KeyRateLimit}
	sort.Strings(keys)
	return keys
}

// Loader reads configuration for a working directory.
type Loader struct {
	// Dir is the working directory. Empty means os.Getwd().
	Dir string

	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load resolves the configuration.
func Load(dir string) (Config, error) {
	return Loader{Dir: dir}.Load()
}

// Load resolves the configuration. Malformed files and invalid values are errors; missing files are not.
func (l Loader) Load() (Config, error) {
	dir := l.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, err
		}
		dir = wd
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	if path, ok := nearestFile(dir); ok {
		values, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load configuration: %w", err)
		}
		for _, k := range sortedKeys(values) {
			if err := cfg.Set(k, values[k], path); err != nil {
				return Config{}, fmt.Errorf("load configuration: %s: %w", path, err)
			}
		}
	}

	envPath := filepath.Join(dir, EnvFileName)
	if dotenv, err := godotenv.Read(envPath); err == nil {
		if err := cfg.applyEnv(func(name string) (string, bool) { v, ok := dotenv[name]; return v, ok }, envPath); err != nil {
			return Config{}, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load configuration: %s: %w", envPath, err)
	}

	if err := cfg.applyEnv(lookup, SourceEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool), source string) error {
	for _, e := range envKeys {
		v, ok := lookup(e.name)
		if !ok || v == "" {
			continue
		}
		if err := c.Set(e.key, v, source); err != nil {
			return fmt.Errorf("load configuration: %s (%s): %w", e.name, source, err)
		}
	}
	return nil
}

// Set parses value for key and records source as its provenance.
func (c *Config) Set(key string, value string, source string) error {
	value = strings.TrimSpace(value)
	var err error
	switch strings.ToLower(key) {
	case KeyStrategy:
		c.Strategy = strings.ToLower(value)
	case KeyStyle:
		c.Style = strings.ToLower(value)
	case KeyModel:
		c.Model = value
	case KeyAPIKey:
		c.APIKey = value
	case KeyBaseURL:
		c.BaseURL = value
	case KeyWorkers:
		c.Workers, err = strconv.Atoi(value)
	case KeyWrapWidth:
		c.WrapWidth, err = strconv.Atoi(value)
	case KeyIndentWidth:
		c.IndentWidth, err = strconv.Atoi(value)
	case KeyMaxSnippetTokens:
		c.MaxSnippetTokens, err = strconv.Atoi(value)
	case KeyRequestTimeout:
		c.RequestTimeout, err = parseDuration(value)
	case KeyRateLimit:
		c.RateLimit, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if c.Provenance == nil {
		c.Provenance = make(map[string]string)
	}
	c.Provenance[strings.ToLower(key)] = source
	return nil
}

// parseDuration accepts Go durations ("30s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks value ranges and names. It does not check for API keys; see RequireAPIKey.
func (c Config) Validate() error {
	var problems []string
	if !contains(docgen.Strategies(), c.Strategy) {
		problems = append(problems, fmt.Sprintf("strategy must be one of %s (got %q)", strings.Join(docgen.Strategies(), ", "), c.Strategy))
	}
	if _, err := docgen.ParseStyle(c.Style); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be >= 1 (got %d)", c.Workers))
	}
	if c.WrapWidth < 0 {
		problems = append(problems, fmt.Sprintf("wrap_width must be >= 0 (got %d)", c.WrapWidth))
	}
	if c.IndentWidth < 1 {
		problems = append(problems, fmt.Sprintf("indent_width must be >= 1 (got %d)", c.IndentWidth))
	}
	if c.MaxSnippetTokens < 0 {
		problems = append(problems, fmt.Sprintf("max_snippet_tokens must be >= 0 (got %d)", c.MaxSnippetTokens))
	}
	if c.RequestTimeout < 0 {
		problems = append(problems, "request_timeout must not be negative")
	}
	if c.RateLimit < 0 {
		problems = append(problems, fmt.Sprintf("rate_limit must be >= 0 (got %g)", c.RateLimit))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// ErrMissingAPIKey is returned by RequireAPIKey.
var ErrMissingAPIKey = errors.New("missing API key")

// RequireAPIKey returns an error if the strategy talks to a remote service and no API key is configured.
func (c Config) RequireAPIKey() error {
	if docgen.NeedsAPIKey(c.Strategy) && c.APIKey == "" {
		return fmt.Errorf("%w: strategy %q needs an API key; run `autodoc init` or set GROQ_API_KEY", ErrMissingAPIKey, c.Strategy)
	}
	return nil
}

// GeneratorOptions returns the docgen options this configuration describes.
func (c Config) GeneratorOptions() docgen.Options {
	return docgen.Options{
		APIKey:           c.APIKey,
		BaseURL:          c.BaseURL,
		Model:            c.Model,
		RequestTimeout:   c.RequestTimeout,
		MaxSnippetTokens: c.MaxSnippetTokens,
		RateLimit:        c.RateLimit,
	}
}

func nearestFile(dir string) (string, bool) {
	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// readFile decodes a YAML or TOML config file into key -> string value.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	if strings.HasSuffix(path, ".toml") {
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("%s: key %q must be a scalar", path, k)
		}
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
