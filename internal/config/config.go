// Package config layers defaults, an optional YAML/JSON config file,
// SWAGGER2ZOD_* environment variables and explicit flag overrides into a
// validated Config.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SWAGGER2ZOD_"

// ErrInvalid wraps every validation failure returned by Load and Parse.
var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Input     string          `koanf:"input" validate:"required"`
	Output    OutputConfig    `koanf:"output"`
	Templates TemplatesConfig `koanf:"templates"`
	Format    FormatConfig    `koanf:"format"`
	Policy    PolicyConfig    `koanf:"policy"`
	Loader    LoaderConfig    `koanf:"loader"`
	Log       LogConfig       `koanf:"log"`
	Force     bool            `koanf:"force"`
	DryRun    bool            `koanf:"dryrun"`
}

type OutputConfig struct {
	Dir       string `koanf:"dir" validate:"required"`
	Catalog   string `koanf:"catalog" validate:"required,nefield=Resources"`
	Resources string `koanf:"resources" validate:"required"`
	Docs      bool   `koanf:"docs"`
}

type TemplatesConfig struct {
	Dir string `koanf:"dir"`
}

type FormatConfig struct {
	Command string `koanf:"command"`
}

type PolicyConfig struct {
	Location string `koanf:"location" validate:"oneof=drop warn error"`
	Dialect  string `koanf:"dialect" validate:"oneof=ignore warn error"`
}

type LoaderConfig struct {
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`
	Retries  int           `koanf:"retries" validate:"min=1,max=10"`
	Backoff  time.Duration `koanf:"backoff" validate:"gte=0"`
	Validate string        `koanf:"validate" validate:"oneof=off warn strict"`
	FileRefs bool          `koanf:"filerefs"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// Defaults returns the lowest-priority layer, keyed by dotted config key.
func Defaults() map[string]any {
	return map[string]any{
		"input":            "",
		"output.dir":       "out",
		"output.catalog":   "generated-schemas.ts",
		"output.resources": "resources.ts",
		"output.docs":      true,
		"templates.dir":    "",
		"format.command":   "",
		"policy.location":  "warn",
		"policy.dialect":   "warn",
		"loader.timeout":   "10s",
		"loader.retries":   3,
		"loader.backoff":   "200ms",
		"loader.validate":  "warn",
		"loader.filerefs":  false,
		"log.level":        "info",
		"log.format":       "console",
		"force":            false,
		"dryrun":           false,
	}
}

// Load builds the configuration with priority, highest first:
// 1. overrides (flags the user actually set)
// 2. environment variables prefixed with EnvPrefix
// 3. the config file at path, when path is not empty
// 4. defaults
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path = strings.TrimSpace(path); path != "" {
		if err := mergeDocument(k, file.Provider(path)); err != nil {
			return nil, fmt.Errorf("failed to load config file %q: %w", path, err)
		}
	}
	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply overrides: %w", err)
		}
	}
	return unmarshal(k)
}

// Parse reads a config document from memory on top of the defaults. The
// environment is not consulted.
func Parse(raw []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := mergeDocument(k, rawbytes.Provider(raw)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return unmarshal(k)
}

func loadDefaults(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(Defaults(), "."), nil)
}

// mergeDocument parses a YAML or JSON document and merges it into k,
// rejecting keys that are not part of the configuration. Empty sections
// (a key with only commented children) are ignored.
func mergeDocument(k *koanf.Koanf, p koanf.Provider) error {
	doc := koanf.New(".")
	if err := doc.Load(p, yaml.Parser()); err != nil {
		return err
	}
	known := Defaults()
	for _, key := range doc.Keys() {
		if doc.Get(key) == nil {
			doc.Delete(key)
			continue
		}
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalid, key)
		}
	}
	return k.Merge(doc)
}

// envKey maps SWAGGER2ZOD_LOADER_TIMEOUT to loader.timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Input = strings.TrimSpace(cfg.Input)
	cfg.Policy.Location = strings.ToLower(strings.TrimSpace(cfg.Policy.Location))
	cfg.Policy.Dialect = strings.ToLower(strings.TrimSpace(cfg.Policy.Dialect))
	cfg.Loader.Validate = strings.ToLower(strings.TrimSpace(cfg.Loader.Validate))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every invalid field by its config key, e.g.
// "policy.location must be one of [drop warn error]".
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "nefield":
		return fmt.Sprintf("%s must differ from output.%s", key, strings.ToLower(fe.Param()))
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
