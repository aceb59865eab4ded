package components

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var validFileExts = []string{".component", ".tmpl", ".html"}

// Engine renders registered components. One engine is safe for concurrent
// renders; per-render state lives in a per-call frame.
type Engine struct {
	settings Settings
	registry *Registry
	cache    *templateCache
	funcs    template.FuncMap
	static   StaticResolver
	tracer   trace.Tracer
	fs       fs.FS

	mu      sync.RWMutex
	sources map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry points the engine at an explicit registry instead of the
// process-wide default.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithFuncs adds functions to the FuncMap of every template fragment.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// WithStaticResolver replaces the default /static/ path-to-URL mapping.
func WithStaticResolver(r StaticResolver) Option {
	return func(e *Engine) { e.static = r }
}

// WithTracer enables span emission around component renders. Without it a
// no-op tracer is used.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithFS sets the filesystem Load reads component templates from.
func WithFS(fsys fs.FS) Option {
	return func(e *Engine) { e.fs = fsys }
}

// New creates an engine with the given settings.
func New(settings Settings, opts ...Option) (*Engine, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		settings: settings,
		registry: defaultRegistry,
		static:   StaticPrefixResolver("/static"),
		tracer:   noop.NewTracerProvider().Tracer("components"),
		funcs:    template.FuncMap{},
		sources:  map[string]string{},
	}
	e.funcs["static"] = func(p string) string { return e.static(p) }
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newTemplateCache(settings.TemplateCacheSize)
	return e, nil
}

// NewDir creates an engine loading templates from a directory.
func NewDir(settings Settings, dir string, opts ...Option) (*Engine, error) {
	return New(settings, append([]Option{WithFS(os.DirFS(dir))}, opts...)...)
}

// Load reads all template files from the engine's filesystem (recursive).
// Each file becomes a named template source; names with no registered
// component yet are registered as template-only components whose data hook
// passes keyword arguments through.
func (e *Engine) Load() error {
	if e.fs == nil {
		return fmt.Errorf("no filesystem configured, use WithFS or NewDir")
	}
	return fs.WalkDir(e.fs, ".", func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !slices.Contains(validFileExts, ext) {
			return nil
		}
		f, err := e.fs.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		name := nameFromPath(path)
		e.mu.Lock()
		e.sources[name] = string(raw)
		e.mu.Unlock()
		if _, ok := e.registry.Get(name); !ok {
			e.registry.Register(name, templateOnly{src: string(raw)})
		}
		return nil
	})
}

func (e *Engine) source(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	src, ok := e.sources[normalizeName(name)]
	return src, ok
}

// compile returns the parsed template for a component, from the cache when
// its identity (name plus source hash) was seen before.
func (e *Engine) compile(ctx context.Context, name string, comp Component) (*parsedTemplate, error) {
	src := comp.Template()
	if src == "" {
		if tn, ok := comp.(TemplateNamer); ok {
			loaded, found := e.source(tn.TemplateName())
			if !found {
				return nil, fmt.Errorf("[component: %s] %w: %q", name, ErrTemplateNotLoaded, tn.TemplateName())
			}
			src = loaded
		}
	}
	key := templateKey(name, src)
	if pt, ok := e.cache.get(key); ok {
		logger(ctx).Debug("template cache hit", "component", name)
		return pt, nil
	}
	logger(ctx).Debug("compiling component template", "component", name, "bytes", len(src))
	p := &parser{componentName: name, funcs: e.funcs}
	pt, err := p.parse(src)
	if err != nil {
		return nil, err
	}
	e.cache.add(key, pt)
	return pt, nil
}

// templateOnly wraps a loaded template file with a pass-through data hook.
type templateOnly struct {
	src string
}

func (t templateOnly) Template() string {
	return t.src
}

func (t templateOnly) Data(in Input) (map[string]any, error) {
	return in.Kwargs, nil
}

// nameFromPath converts a filesystem path to a template name, relative to
// the engine's filesystem root.
func nameFromPath(path string) string {
	rel := filepath.ToSlash(path)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return normalizeName(rel)
}

// normalizeName strips quotes, spaces and extensions and normalizes slashes.
func normalizeName(n string) string {
	n = strings.TrimSpace(n)
	n = strings.Trim(n, `"' `)
	n = strings.TrimSuffix(n, filepath.Ext(n))
	return filepath.ToSlash(n)
}
