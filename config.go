package components

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Context behaviors. "django" resolves fill bodies against the full context
// stack at the slot; "isolated" restricts them to the data of the component
// whose template supplied the fill (plus wrapping loop variables and the
// ambient base).
const (
	ContextBehaviorDjango   = "django"
	ContextBehaviorIsolated = "isolated"
)

// UnboundedCacheSize disables template-cache eviction. In configuration
// files and environment variables the string "unbounded" maps to it.
const UnboundedCacheSize = -1

const envPrefix = "COMPONENTS_"

// Settings is the engine configuration surface.
type Settings struct {
	// ContextBehavior selects the fill isolation policy:
	// ContextBehaviorDjango or ContextBehaviorIsolated.
	ContextBehavior string `koanf:"context_behavior"`

	// TemplateCacheSize bounds the compiled-template cache (LRU eviction),
	// or UnboundedCacheSize for no bound.
	TemplateCacheSize int `koanf:"template_cache_size"`

	// MaxRenderDepth caps nested component renders, guarding against cyclic
	// component references.
	MaxRenderDepth int `koanf:"max_render_depth"`
}

func DefaultSettings() Settings {
	return Settings{
		ContextBehavior:   ContextBehaviorDjango,
		TemplateCacheSize: 128,
		MaxRenderDepth:    100,
	}
}

func (s Settings) validate() error {
	switch s.ContextBehavior {
	case ContextBehaviorDjango, ContextBehaviorIsolated:
	default:
		return fmt.Errorf("invalid context_behavior %q", s.ContextBehavior)
	}
	if s.TemplateCacheSize == 0 || s.TemplateCacheSize < UnboundedCacheSize {
		return fmt.Errorf("invalid template_cache_size %d", s.TemplateCacheSize)
	}
	if s.MaxRenderDepth <= 0 {
		return fmt.Errorf("invalid max_render_depth %d", s.MaxRenderDepth)
	}
	return nil
}

// LoadSettings layers configuration: defaults, then an optional YAML file,
// then COMPONENTS_* environment variables (e.g. COMPONENTS_CONTEXT_BEHAVIOR).
// Pass an empty path to skip the file layer; a missing file at an explicit
// path is an error.
func LoadSettings(path string) (Settings, error) {
	def := DefaultSettings()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"context_behavior":    def.ContextBehavior,
		"template_cache_size": def.TemplateCacheSize,
		"max_render_depth":    def.MaxRenderDepth,
	}, "."), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Settings{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	s := Settings{
		ContextBehavior: k.String("context_behavior"),
		MaxRenderDepth:  k.Int("max_render_depth"),
	}
	size, err := cacheSize(k.Get("template_cache_size"))
	if err != nil {
		return Settings{}, err
	}
	s.TemplateCacheSize = size

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// cacheSize accepts an integer or the string "unbounded".
func cacheSize(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		if t == "unbounded" {
			return UnboundedCacheSize, nil
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("invalid template_cache_size %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid template_cache_size %v", v)
	}
}
