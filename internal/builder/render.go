// internal/builder/render.go
package builder

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"minisite/internal/resource"
)

// RenderContext is what a render function sees for one document: the page
// itself, the state of its locale, and the state of every locale.
type RenderContext struct {
	Page        *resource.Resource
	Site        any
	Pages       []*resource.Resource
	Collections map[string]*resource.Collection
	References  map[string]*resource.Resource
	Global      map[string]*LocaleState
}

func newRenderContext(st *State, r *resource.Resource) *RenderContext {
	ls := st.Global[r.Locale]
	return &RenderContext{
		Page:        r,
		Site:        ls.Site,
		Pages:       ls.Pages,
		Collections: ls.Collections,
		References:  ls.References,
		Global:      st.Global,
	}
}

// Output is one file produced by a build.
type Output struct {
	// Path is the output file path, rooted at the content base.
	Path     string
	Contents []byte
	Resource *resource.Resource
}

// Relative returns the slash separated output path below the content base.
func (o *Output) Relative() string {
	if o.Resource == nil || o.Resource.File == nil {
		return filepath.ToSlash(o.Path)
	}
	rel, err := filepath.Rel(o.Resource.File.Base, o.Path)
	if err != nil {
		return filepath.ToSlash(o.Path)
	}
	return filepath.ToSlash(rel)
}

// render produces the outputs of every retained resource in the order the
// resources were added. Hidden documents produce nothing.
func render(ctx context.Context, st *State, opts Options) ([]*Output, error) {
	resources := st.Resources()
	slots := make([]*Output, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, r := range resources {
		if r.Document && r.Hidden {
			continue
		}
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			contents, err := renderOne(gctx, st, r, opts.Render)
			if err != nil {
				return err
			}
			slots[i] = &Output{Path: r.Filepath, Contents: contents, Resource: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outputs := make([]*Output, 0, len(slots))
	for _, o := range slots {
		if o != nil {
			outputs = append(outputs, o)
		}
	}
	return outputs, nil
}

func renderOne(ctx context.Context, st *State, r *resource.Resource, fn RenderFunc) (out []byte, err error) {
	if !r.Document {
		return r.File.Contents, nil
	}
	if !r.HasTemplate() || fn == nil {
		return []byte(r.Body), nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = &RenderError{Path: r.SrcRelative, Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	s, err := fn(ctx, newRenderContext(st, r))
	if err != nil {
		return nil, &RenderError{Path: r.SrcRelative, Err: err}
	}
	return []byte(s), nil
}
