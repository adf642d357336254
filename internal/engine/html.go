// internal/engine/html.go
package engine

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"minisite/internal/builder"
	"minisite/internal/logfields"
	"minisite/internal/resource"
	"minisite/internal/util"
)

// sharedDirs hold templates that every page template can include or
// extend. Files whose name starts with "_" are shared as well.
var sharedDirs = []string{"layouts/", "partials/"}

var htmlExts = []string{".html", ".tmpl", ".gohtml"}

// HTML renders documents with html/template. Each page template is parsed
// into its own clone of the shared set so pages can redefine layout blocks
// independently.
type HTML struct {
	opts  Options
	pages map[string]*template.Template
}

// NewHTML loads every template below opts.Dir.
func NewHTML(opts Options) (*HTML, error) {
	e := &HTML{opts: opts, pages: map[string]*template.Template{}}

	sources, err := readTemplates(opts.Dir)
	if err != nil {
		return nil, err
	}

	shared := template.New("").Funcs(e.funcs())
	var pageNames []string
	for name, src := range sources {
		if !isShared(name) {
			pageNames = append(pageNames, name)
			continue
		}
		if _, err := shared.New(name).Parse(src); err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
	}

	for _, name := range pageNames {
		t, err := shared.Clone()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if _, err := t.New(name).Parse(sources[name]); err != nil {
			return nil, errors.Wrapf(err, "parse template %s", name)
		}
		e.pages[name] = t
	}

	opts.logger().Debug("templates loaded", logfields.Path(opts.Dir), logfields.Count(len(e.pages)))
	return e, nil
}

func (e *HTML) Render(ctx context.Context, rc *builder.RenderContext) (string, error) {
	name, ok := lookupName(rc.Page.Template(), htmlExts, func(n string) bool {
		_, ok := e.pages[n]
		return ok
	})
	if !ok {
		return "", &TemplateNotFoundError{Name: rc.Page.Template(), Dir: e.opts.Dir}
	}

	var buf bytes.Buffer
	if err := e.pages[name].ExecuteTemplate(&buf, name, rc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *HTML) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": func(src any, page ...*resource.Resource) (template.HTML, error) {
			return renderMarkdown(src, nestedPage(page), e.opts.Unsafe)
		},
		"baseHref": func(page *resource.Resource) string {
			return util.ComputeBaseHref(page.Path)
		},
		"relURL": func(page *resource.Resource, target string) string {
			return util.RelURL(page.Path, target)
		},
		"absURL": func(target string) string {
			return util.AbsURL(e.opts.BaseURL, target)
		},
		"attr": func(r *resource.Resource, key string) any {
			if r == nil {
				return nil
			}
			return r.Attr(key)
		},
	}
}

// nestedPage reports whether links in the page's markdown resolve one
// directory deeper than its source file.
func nestedPage(page []*resource.Resource) bool {
	return len(page) > 0 && page[0] != nil && page[0].Document && !page[0].Index
}

func isShared(name string) bool {
	if strings.HasPrefix(path.Base(name), "_") {
		return true
	}
	for _, dir := range sharedDirs {
		if strings.HasPrefix(name, dir) {
			return true
		}
	}
	return false
}

// readTemplates returns the contents of every file below dir keyed by its
// slash separated relative path.
func readTemplates(dir string) (map[string]string, error) {
	sources := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		sources[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read templates from %s", dir)
	}
	return sources, nil
}
