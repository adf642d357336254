// internal/resource/resource.go
package resource

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"minisite/internal/logfields"
)

// IndexSlug is the slug that makes a document stand for its directory.
const IndexSlug = "index"

// DefaultDocumentTypes are the extensions treated as documents when Options
// does not say otherwise.
var DefaultDocumentTypes = []string{"yml", "yaml", "json"}

// Options controls how a source file is turned into a Resource.
type Options struct {
	Locales       []string
	DefaultLocale string
	// DocumentTypes lists extensions (without the dot) that make a file a
	// document. nil selects DefaultDocumentTypes; an empty non-nil slice
	// leaves content sniffing as the only way to become a document.
	DocumentTypes []string
	Logger        *slog.Logger
}

func (o Options) documentTypes() []string {
	if o.DocumentTypes == nil {
		return DefaultDocumentTypes
	}
	return o.DocumentTypes
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Resource is the model of one source file: what its name says about it,
// where it is written, what it contains, and (once the builder has run)
// how it relates to the other resources of the site.
type Resource struct {
	File        *File
	SrcRelative string

	Document bool
	Index    bool
	Draft    bool
	Hidden   bool

	Locale    string
	Slug      string
	Order     string
	Extension string

	Dirnames     []string
	Path         string
	Filepath     string
	ResourceID   string
	CollectionID string

	Data       any
	Body       string
	Attributes map[string]any

	// Set by the builder.
	Locales    map[string]*Resource
	Collection *Collection
	Prev       *Resource
	Next       *Resource
}

// New builds the Resource for f. It only reads f and opts.
func New(f *File, opts Options) (*Resource, error) {
	rel := f.Relative()
	pn, err := ParseName(rel, opts.Locales)
	if err != nil {
		return nil, err
	}

	r := &Resource{
		File:        f,
		SrcRelative: rel,
		Draft:       pn.Draft,
		Hidden:      pn.Hidden,
		Slug:        pn.Slug,
		Order:       pn.Order,
		Extension:   pn.Extension,
		Locale:      pn.Locale,
		Attributes:  map[string]any{},
	}
	if r.Locale == "" {
		r.Locale = opts.DefaultLocale
	}

	r.Document = slices.Contains(opts.documentTypes(), pn.Extension) || HasFrontMatter(f.Contents)
	r.Index = r.Document && r.Slug == IndexSlug

	if r.Locale != "" && r.Locale != opts.DefaultLocale {
		r.Dirnames = append(r.Dirnames, r.Locale)
	}
	r.Dirnames = append(r.Dirnames, pn.Dirnames...)
	if r.Document && !r.Index {
		r.Dirnames = append(r.Dirnames, r.Slug)
	}

	r.CollectionID = strings.Join(pn.SourceDirnames, "/")
	if r.Document {
		r.Path = "/" + strings.Join(r.Dirnames, "/")
		if len(r.Dirnames) > 0 {
			r.Path += "/"
		}
		r.Filepath = filepath.Join(append(append([]string{f.Base}, r.Dirnames...), "index.html")...)
		if r.Index {
			r.ResourceID = r.CollectionID
		} else {
			r.ResourceID = path.Join(r.CollectionID, r.Slug)
		}
	} else {
		name := r.assetName()
		r.Path = path.Join(append(append([]string{"/"}, r.Dirnames...), name)...)
		r.Filepath = filepath.Join(append(append([]string{f.Base}, r.Dirnames...), name)...)
		r.ResourceID = path.Join(r.CollectionID, name)
	}

	if r.Document {
		r.Data, r.Body, err = parseDocument(rel, f.Contents)
		if err != nil {
			return nil, err
		}
	}

	r.promote(opts.logger())
	return r, nil
}

func (r *Resource) assetName() string {
	if r.Extension == "" {
		return r.Slug
	}
	return r.Slug + "." + r.Extension
}

// promote copies the top level keys of a mapping Data into Attributes,
// skipping names that belong to the resource itself.
func (r *Resource) promote(logger *slog.Logger) {
	m, ok := r.Data.(map[string]any)
	if !ok {
		return
	}
	for key, value := range m {
		if _, reserved := reservedFields[key]; reserved {
			logger.Warn("attribute not promoted, name is reserved",
				logfields.Source(r.SrcRelative),
				logfields.Attribute(key))
			continue
		}
		r.Attributes[key] = value
	}
}

var reservedFields = map[string]func(*Resource) any{
	"document":     func(r *Resource) any { return r.Document },
	"index":        func(r *Resource) any { return r.Index },
	"draft":        func(r *Resource) any { return r.Draft },
	"hidden":       func(r *Resource) any { return r.Hidden },
	"locale":       func(r *Resource) any { return r.Locale },
	"slug":         func(r *Resource) any { return r.Slug },
	"order":        func(r *Resource) any { return r.Order },
	"dirnames":     func(r *Resource) any { return r.Dirnames },
	"path":         func(r *Resource) any { return r.Path },
	"filepath":     func(r *Resource) any { return r.Filepath },
	"resourceId":   func(r *Resource) any { return r.ResourceID },
	"collectionId": func(r *Resource) any { return r.CollectionID },
	"data":         func(r *Resource) any { return r.Data },
	"body":         func(r *Resource) any { return r.Body },
	"locales":      func(r *Resource) any { return r.Locales },
	"collection":   func(r *Resource) any { return r.Collection },
	"prev":         func(r *Resource) any { return r.Prev },
	"next":         func(r *Resource) any { return r.Next },
}

// IsReserved reports whether key names a built-in resource field.
func IsReserved(key string) bool {
	_, ok := reservedFields[key]
	return ok
}

// Lookup resolves key against the built-in fields first and the promoted
// attributes second.
func (r *Resource) Lookup(key string) (any, bool) {
	if get, ok := reservedFields[key]; ok {
		return get(r), true
	}
	v, ok := r.Attributes[key]
	return v, ok
}

// Attr is Lookup for templates: a missing key yields nil.
func (r *Resource) Attr(key string) any {
	v, _ := r.Lookup(key)
	return v
}

// HasTemplate reports whether the document declares a non-empty, non-false
// template attribute.
func (r *Resource) HasTemplate() bool {
	switch v := r.Attributes["template"].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		return true
	}
}

// Template returns the template name, or "" when the attribute is not a
// string.
func (r *Resource) Template() string {
	name, _ := r.Attributes["template"].(string)
	return name
}

func (r *Resource) String() string {
	return fmt.Sprintf("<Resource %s>", r.SrcRelative)
}
