package inject

import (
	"context"
	"encoding/xml"
	"sort"

	"minisite/internal/builder"
	"minisite/internal/util"
)

const sitemapXMLNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	Urls    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap emits sitemap.xml listing every published document of every
// locale. Hidden documents and documents with `sitemap: false` are left
// out; a string `date` attribute becomes lastmod.
type Sitemap struct {
	BaseURL string `yaml:"baseurl"`
	Path    string `yaml:"path"`
}

func (s Sitemap) Injector() builder.Injector {
	return func(_ context.Context, st *builder.State, _ *builder.Options) (any, error) {
		locales := make([]string, 0, len(st.Global))
		for l := range st.Global {
			locales = append(locales, l)
		}
		sort.Strings(locales)

		set := urlset{Xmlns: sitemapXMLNS}
		for _, l := range locales {
			for _, page := range st.Global[l].Pages {
				if page.Hidden || page.Attr("sitemap") == false {
					continue
				}
				lastmod, _ := page.Attr("date").(string)
				set.Urls = append(set.Urls, sitemapURL{Loc: util.AbsURL(s.BaseURL, page.Path), LastMod: lastmod})
			}
		}

		out, err := xml.MarshalIndent(set, "", "  ")
		if err != nil {
			return nil, err
		}
		name := s.Path
		if name == "" {
			name = "sitemap.xml"
		}
		return builder.Spec{Path: name, Contents: append([]byte(xml.Header), out...)}, nil
	}
}
