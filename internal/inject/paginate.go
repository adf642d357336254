// Package inject provides injectors that synthesize documents from the
// state of a build: pagination pages, group index pages and a sitemap.
package inject

import (
	"context"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"minisite/internal/builder"
	"minisite/internal/resource"
)

// Paginate splits a collection into pages of Size documents. The first page
// is the collection's index document; page n > 1 lives at
// <collection>/<Dir>/<n>.
type Paginate struct {
	Collection string `yaml:"collection"`
	Size       int    `yaml:"size"`
	Dir        string `yaml:"dir"`
	Template   string `yaml:"template"`
	// Locale selects whose collection is paginated. Generated files carry
	// the locale tag so they join the same locale.
	Locale string `yaml:"locale"`
}

const (
	defaultPageSize = 10
	defaultPageDir  = "page"
)

// Injector returns the build pass that emits the pages.
func (p Paginate) Injector() builder.Injector {
	return func(_ context.Context, st *builder.State, _ *builder.Options) (any, error) {
		size := p.Size
		if size <= 0 {
			size = defaultPageSize
		}
		dir := p.Dir
		if dir == "" {
			dir = defaultPageDir
		}

		c := st.Locale(p.Locale).Collections[p.Collection]
		n := c.Len()
		pages := (n + size - 1) / size

		specs := make([]builder.Spec, 0, pages)
		for i := 0; i < pages; i++ {
			data := map[string]any{
				"offset": i * size,
				"limit":  size,
				"page":   i + 1,
				"pages":  pages,
				"items":  resourceIDs(c.Items()[i*size : min((i+1)*size, n)]),
			}
			if p.Template != "" {
				data["template"] = p.Template
			}
			contents, err := yaml.Marshal(data)
			if err != nil {
				return nil, err
			}

			name := path.Join(p.Collection, withLocale("index", p.Locale))
			if i > 0 {
				name = path.Join(p.Collection, dir, withLocale(fmt.Sprint(i+1), p.Locale))
			}
			specs = append(specs, builder.Spec{Path: name, Contents: contents})
		}
		return specs, nil
	}
}

func withLocale(stem, locale string) string {
	if locale == "" {
		return stem + ".yml"
	}
	return stem + "." + locale + ".yml"
}

func resourceIDs(rs []*resource.Resource) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ResourceID
	}
	return ids
}
