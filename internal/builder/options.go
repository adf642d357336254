// internal/builder/options.go
package builder

import (
	"context"
	"log/slog"
	"runtime"

	"minisite/internal/resource"
)

// Injector synthesizes extra source files from the state built so far. It
// may return nil, a *resource.File, a resource.File, a slice of either, a
// Spec, a *Spec, a []Spec, a map with "path" and "contents" keys, or a []any
// of those single forms.
type Injector func(ctx context.Context, st *State, opts *Options) (any, error)

// RenderFunc turns a document into its output text.
type RenderFunc func(ctx context.Context, rc *RenderContext) (string, error)

// Constructor builds a Resource from a source file. resource.New is the
// default.
type Constructor func(f *resource.File, opts resource.Options) (*resource.Resource, error)

// Transform runs on every constructed resource before it joins the graph.
type Transform func(r *resource.Resource) (*resource.Resource, error)

// Options configures a build.
type Options struct {
	// Base is the content root. Injected files with relative paths are
	// rooted here. Empty means the Base of the first source file.
	Base string

	Locales       []string
	DefaultLocale string
	Site          any
	// DocumentTypes follows resource.Options: nil selects the defaults.
	DocumentTypes []string
	Draft         bool

	Inject []Injector
	// Render is called for documents that declare a template. Without it
	// every document outputs its body.
	Render RenderFunc

	NewResource Constructor
	Transforms  []Transform

	// Concurrency bounds parallel resource construction and rendering.
	// Zero means GOMAXPROCS.
	Concurrency int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.NewResource == nil {
		o.NewResource = resource.New
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ResourceOptions returns the subset of o that resource construction uses.
func (o Options) ResourceOptions() resource.Options {
	return resource.Options{
		Locales:       o.Locales,
		DefaultLocale: o.DefaultLocale,
		DocumentTypes: o.DocumentTypes,
		Logger:        o.Logger,
	}
}
