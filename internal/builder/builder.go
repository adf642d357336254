// internal/builder/builder.go
package builder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"minisite/internal/logfields"
	"minisite/internal/resource"
)

// Result is a finished build: the resource graph and the rendered outputs.
type Result struct {
	State   *State
	Outputs []*Output
}

// Build turns the source files into a resource graph, runs every injector
// as a further pass over that graph, and renders the outputs. Any error
// aborts the whole build and nothing is returned.
func Build(ctx context.Context, files []*resource.File, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if opts.Base == "" && len(files) > 0 {
		opts.Base = files[0].Base
	}
	start := time.Now()
	st := NewState(opts)

	passes := make([]Injector, 0, len(opts.Inject)+1)
	passes = append(passes, func(context.Context, *State, *Options) (any, error) {
		return files, nil
	})
	passes = append(passes, opts.Inject...)

	for i, inject := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if inject == nil {
			continue
		}

		value, err := inject(ctx, st, &opts)
		if err != nil {
			return nil, fmt.Errorf("inject pass %d: %w", i, err)
		}
		batch, err := normalizeInjection(value, opts.Base)
		if err != nil {
			return nil, err
		}

		resources, err := construct(ctx, batch, opts)
		if err != nil {
			return nil, err
		}
		if !opts.Draft {
			resources = dropDrafts(resources)
		}
		if err := st.add(resources); err != nil {
			return nil, err
		}
		opts.Logger.Debug("build pass complete", logfields.Pass(i), logfields.Count(len(resources)))
	}

	outputs, err := render(ctx, st, opts)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("build complete",
		logfields.Count(len(outputs)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return &Result{State: st, Outputs: outputs}, nil
}

// construct builds the resources of one pass in parallel. Results keep the
// input order and the first failing file (in input order) decides the error.
func construct(ctx context.Context, files []*resource.File, opts Options) ([]*resource.Resource, error) {
	out := make([]*resource.Resource, len(files))
	errs := make([]error, len(files))
	ropts := opts.ResourceOptions()

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			out[i], errs[i] = newResource(f, ropts, opts)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func newResource(f *resource.File, ropts resource.Options, opts Options) (*resource.Resource, error) {
	r, err := opts.NewResource(f, ropts)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%s: resource constructor returned nil", f.Relative())
	}
	for _, transform := range opts.Transforms {
		if r, err = transform(r); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Relative(), err)
		}
		if r == nil {
			return nil, fmt.Errorf("%s: resource transform returned nil", f.Relative())
		}
	}
	return r, nil
}

func dropDrafts(rs []*resource.Resource) []*resource.Resource {
	kept := make([]*resource.Resource, 0, len(rs))
	for _, r := range rs {
		if !r.Draft {
			kept = append(kept, r)
		}
	}
	return kept
}
