// internal/engine/plush.go
package engine

import (
	"context"
	"html/template"

	"github.com/gobuffalo/plush"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/pkg/errors"

	"minisite/internal/builder"
	"minisite/internal/logfields"
	"minisite/internal/resource"
	"minisite/internal/util"
)

var plushExts = []string{".plush.html", ".plush", ".html"}

// Plush renders documents with github.com/gobuffalo/plush. A page that sets
// a layout attribute is rendered first and handed to the layout as yield.
type Plush struct {
	opts    Options
	sources map[string]string
}

func NewPlush(opts Options) (*Plush, error) {
	sources, err := readTemplates(opts.Dir)
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("templates loaded", logfields.Path(opts.Dir), logfields.Count(len(sources)))
	return &Plush{opts: opts, sources: sources}, nil
}

func (e *Plush) Render(ctx context.Context, rc *builder.RenderContext) (string, error) {
	pctx := e.context(rc)

	out, err := e.exec(rc.Page.Template(), pctx)
	if err != nil {
		return "", err
	}

	layout, _ := rc.Page.Attr("layout").(string)
	if layout == "" {
		return out, nil
	}
	pctx.Set("yield", template.HTML(out))
	return e.exec(layout, pctx)
}

func (e *Plush) exec(name string, pctx *plush.Context) (string, error) {
	resolved, ok := e.resolve(name)
	if !ok {
		return "", &TemplateNotFoundError{Name: name, Dir: e.opts.Dir}
	}
	t, err := plush.Parse(e.sources[resolved])
	if err != nil {
		return "", errors.Wrapf(err, "parse template %s", resolved)
	}
	return t.Exec(pctx)
}

func (e *Plush) resolve(name string) (string, bool) {
	return lookupName(name, plushExts, func(n string) bool {
		_, ok := e.sources[n]
		return ok
	})
}

func (e *Plush) context(rc *builder.RenderContext) *plush.Context {
	page := rc.Page
	pctx := plush.NewContext()
	pctx.Set("page", page)
	pctx.Set("collection", page.Collection.Items())
	pctx.Set("site", rc.Site)
	pctx.Set("pages", rc.Pages)
	pctx.Set("collections", rc.Collections)
	pctx.Set("references", rc.References)
	pctx.Set("global", rc.Global)

	pctx.Set("markdown", func(src any) template.HTML {
		return renderGoMarkdown(markdownSource(src), page.Document && !page.Index, e.opts.Unsafe)
	})
	pctx.Set("baseHref", func() string {
		return util.ComputeBaseHref(page.Path)
	})
	pctx.Set("relURL", func(target string) string {
		return util.RelURL(page.Path, target)
	})
	pctx.Set("absURL", func(target string) string {
		return util.AbsURL(e.opts.BaseURL, target)
	})
	pctx.Set("attr", func(r *resource.Resource, key string) any {
		if r == nil {
			return nil
		}
		return r.Attr(key)
	})
	pctx.Set("partialFeeder", func(name string) (string, error) {
		resolved, ok := e.resolve(name)
		if !ok {
			return "", &TemplateNotFoundError{Name: name, Dir: e.opts.Dir}
		}
		return e.sources[resolved], nil
	})
	return pctx
}

// renderGoMarkdown is the plush engine's markdown filter. It shares the
// document link rewriting of the html engine.
func renderGoMarkdown(src string, nested, unsafe bool) template.HTML {
	if src == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(src))
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if link, ok := node.(*ast.Link); ok && entering {
			link.Destination = []byte(rewriteDocumentLink(string(link.Destination), nested))
		}
		return ast.GoToNext
	})

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	out := markdown.Render(doc, renderer)
	if unsafe {
		return template.HTML(out)
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(out))
}
