// Package engine renders documents through a template language. Every
// engine resolves the document's template attribute against a template
// directory and exposes the build's render context to it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"minisite/internal/builder"
)

// Engine renders one document.
type Engine interface {
	Render(ctx context.Context, rc *builder.RenderContext) (string, error)
}

// Options configures an engine.
type Options struct {
	// Dir is the template directory. Template names are relative to it.
	Dir string
	// BaseURL feeds the absURL helper.
	BaseURL string
	// Unsafe disables HTML sanitizing of rendered markdown.
	Unsafe bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

type factory func(Options) (Engine, error)

var engines = map[string]factory{
	"html":  func(o Options) (Engine, error) { return NewHTML(o) },
	"plush": func(o Options) (Engine, error) { return NewPlush(o) },
}

// Names lists the registered engines.
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the engine registered under name. An empty name selects
// "html".
func New(name string, opts Options) (Engine, error) {
	if name == "" {
		name = "html"
	}
	f, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown template engine %q (available: %v)", name, Names())
	}
	return f(opts)
}

// RenderFunc adapts e to the builder's render callback.
func RenderFunc(e Engine) builder.RenderFunc {
	return e.Render
}

// TemplateNotFoundError reports a document naming a template that does not
// exist in the template directory.
type TemplateNotFoundError struct {
	Name string
	Dir  string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in %s", e.Name, e.Dir)
}

// lookupName resolves a template attribute against the loaded template
// names. "post" matches "post", then "post" plus each of exts.
func lookupName(name string, exts []string, has func(string) bool) (string, bool) {
	name = filepath.ToSlash(name)
	if has(name) {
		return name, true
	}
	for _, ext := range exts {
		if has(name + ext) {
			return name + ext, true
		}
	}
	return "", false
}
