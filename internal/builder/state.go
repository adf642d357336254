// internal/builder/state.go
package builder

import (
	"slices"

	"minisite/internal/resource"
)

// LocaleState is everything the build knows about one locale.
type LocaleState struct {
	Locale      string
	Pages       []*resource.Resource
	Collections map[string]*resource.Collection
	References  map[string]*resource.Resource
	Site        any
}

func newLocaleState(locale string, site any) *LocaleState {
	return &LocaleState{
		Locale:      locale,
		Collections: map[string]*resource.Collection{},
		References:  map[string]*resource.Resource{},
		Site:        site,
	}
}

// collection returns the collection with the given id, creating an empty
// one on first use.
func (ls *LocaleState) collection(id string) *resource.Collection {
	c, ok := ls.Collections[id]
	if !ok {
		c = resource.NewCollection(id, ls.Locale)
		ls.Collections[id] = c
	}
	return c
}

// State is the resource graph under construction. Only the builder's
// coordinating goroutine writes to it; injectors and render functions read.
type State struct {
	// Global maps a locale ("" for none) to its state.
	Global map[string]*LocaleState

	site      any
	perLocale bool
	groups    map[string]map[string]*resource.Resource
	filepaths map[string]*resource.Resource
	resources []*resource.Resource
}

// NewState prepares empty per-locale state for "" and every configured
// locale.
func NewState(opts Options) *State {
	s := &State{
		Global:    map[string]*LocaleState{},
		site:      opts.Site,
		perLocale: siteIsPerLocale(opts.Site, opts.Locales),
		groups:    map[string]map[string]*resource.Resource{},
		filepaths: map[string]*resource.Resource{},
	}
	s.Locale("")
	for _, l := range opts.Locales {
		s.Locale(l)
	}
	return s
}

// Locale returns the state of locale l, creating it when l was not
// configured (a default locale outside the locale list, for instance).
func (s *State) Locale(l string) *LocaleState {
	ls, ok := s.Global[l]
	if !ok {
		site := s.site
		if s.perLocale {
			site = s.site.(map[string]any)[l]
		}
		ls = newLocaleState(l, site)
		s.Global[l] = ls
	}
	return ls
}

// Resources returns every retained resource in the order it was added.
func (s *State) Resources() []*resource.Resource {
	return s.resources
}

// Lookup finds a resource by its output file path.
func (s *State) Lookup(filepath string) (*resource.Resource, bool) {
	r, ok := s.filepaths[filepath]
	return r, ok
}

// add registers one pass worth of resources: collision check, references,
// collections, pages, locale groups, then re-sorting what changed.
func (s *State) add(rs []*resource.Resource) error {
	for _, r := range rs {
		if prev, ok := s.filepaths[r.Filepath]; ok {
			return &PathCollisionError{Filepath: r.Filepath, First: prev.SrcRelative, Second: r.SrcRelative}
		}
		s.filepaths[r.Filepath] = r
	}

	var docs []*resource.Resource
	touched := map[*resource.Collection]struct{}{}
	for _, r := range rs {
		if !r.Document {
			continue
		}
		docs = append(docs, r)
		ls := s.Locale(r.Locale)
		ls.References[r.ResourceID] = r
		if !r.Index {
			c := ls.collection(r.CollectionID)
			c.Append(r)
			touched[c] = struct{}{}
		}
		ls.Pages = append(ls.Pages, r)
	}

	for _, r := range docs {
		group, ok := s.groups[r.ResourceID]
		if !ok {
			group = map[string]*resource.Resource{}
			s.groups[r.ResourceID] = group
		}
		group[r.Locale] = r
		r.Locales = group
		r.Collection = s.Locale(r.Locale).collection(r.ResourceID)
	}

	for c := range touched {
		c.Sort()
	}

	s.resources = append(s.resources, rs...)
	return nil
}

// siteIsPerLocale reports whether site is a mapping whose non-empty keys are
// exactly the configured locales, in which case each locale gets its own
// entry.
func siteIsPerLocale(site any, locales []string) bool {
	m, ok := site.(map[string]any)
	if !ok || len(locales) == 0 {
		return false
	}
	var keys []string
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	want := slices.Clone(locales)
	slices.Sort(keys)
	slices.Sort(want)
	return slices.Equal(keys, slices.Compact(want))
}
