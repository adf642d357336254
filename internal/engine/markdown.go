// internal/engine/markdown.go
package engine

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// documentLinkExts are source extensions whose links are rewritten to the
// directory URL the document is published at.
var documentLinkExts = map[string]bool{".md": true, ".yml": true, ".yaml": true, ".json": true, ".html": true}

var htmlSanitizer = bluemonday.UGCPolicy()

// newGoldmark builds a renderer whose relative document links are rewritten
// for a page published as a directory. nested reports whether the page
// lives one directory below its source (every document except an index).
func newGoldmark(nested bool) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&docLinkTransformer{nested: nested}, 100),
			),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

var (
	flatMarkdown   = newGoldmark(false)
	nestedMarkdown = newGoldmark(true)
)

// renderMarkdown converts src with goldmark. nil and empty input render to
// nothing; non-string input is formatted first.
func renderMarkdown(src any, nested, unsafe bool) (template.HTML, error) {
	s := markdownSource(src)
	if s == "" {
		return "", nil
	}
	md := flatMarkdown
	if nested {
		md = nestedMarkdown
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	if unsafe {
		return template.HTML(buf.String()), nil
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil
}

func markdownSource(src any) string {
	switch v := src.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case template.HTML:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// docLinkTransformer rewrites links to sibling source documents, such as
// "other.md" or "../guide/index.md", into their published directory URLs.
type docLinkTransformer struct {
	nested bool
}

func (t *docLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		link.Destination = []byte(rewriteDocumentLink(string(link.Destination), t.nested))
		return ast.WalkContinue, nil
	})
}

// rewriteDocumentLink maps a relative link to a source document onto the
// URL of its output. Absolute, external and non-document links are left
// alone.
func rewriteDocumentLink(dest string, nested bool) string {
	if dest == "" || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") || strings.Contains(dest, ":") {
		return dest
	}
	target, fragment, hasFragment := strings.Cut(dest, "#")
	ext := path.Ext(target)
	if !documentLinkExts[ext] {
		return dest
	}

	dir, name := path.Split(strings.TrimSuffix(target, ext))
	if name != "index" {
		dir += name + "/"
	}
	if nested {
		dir = "../" + dir
	}
	if dir == "" {
		dir = "./"
	}
	if hasFragment {
		dir += "#" + fragment
	}
	return dir
}
