package inject

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minisite/internal/builder"
	"minisite/internal/resource"
)

const testBase = "/root/base"

func items(n int, attrs func(i int) string) []*resource.File {
	var files []*resource.File
	for i := 1; i <= n; i++ {
		files = append(files, resource.NewFile(testBase, fmt.Sprintf("items/%02d.yml", i), []byte(attrs(i))))
	}
	return files
}

func build(t *testing.T, files []*resource.File, opts builder.Options) *builder.Result {
	t.Helper()
	res, err := builder.Build(context.Background(), files, opts)
	require.NoError(t, err)
	return res
}

func TestPaginate(t *testing.T) {
	res := build(t, items(10, func(int) string { return "{}" }), builder.Options{
		Inject: []builder.Injector{Paginate{Collection: "items", Size: 3, Template: "list"}.Injector()},
	})

	require.Len(t, res.Outputs, 14)
	var rels []string
	for _, o := range res.Outputs[10:] {
		rels = append(rels, o.Relative())
	}
	assert.Equal(t, []string{
		"items/index.html",
		"items/page/2/index.html",
		"items/page/3/index.html",
		"items/page/4/index.html",
	}, rels)

	first := res.Outputs[10].Resource
	assert.Equal(t, 0, first.Attr("offset"))
	assert.Equal(t, 3, first.Attr("limit"))
	assert.Equal(t, 1, first.Attr("page"))
	assert.Equal(t, 4, first.Attr("pages"))
	assert.Equal(t, []any{"items/01", "items/02", "items/03"}, first.Attr("items"))
	assert.Equal(t, "list", first.Template())
	assert.Equal(t, 10, first.Collection.Len())

	last := res.Outputs[13].Resource
	assert.Equal(t, 9, last.Attr("offset"))
	assert.Equal(t, []any{"items/10"}, last.Attr("items"))
}

func TestPaginate_EmptyCollection(t *testing.T) {
	res := build(t, nil, builder.Options{
		Inject: []builder.Injector{Paginate{Collection: "missing"}.Injector()},
	})
	assert.Empty(t, res.Outputs)
}

func TestPaginate_Locale(t *testing.T) {
	files := []*resource.File{
		resource.NewFile(testBase, "items/a.ja.yml", []byte("{}")),
		resource.NewFile(testBase, "items/b.ja.yml", []byte("{}")),
		resource.NewFile(testBase, "items/c.yml", []byte("{}")),
	}
	res := build(t, files, builder.Options{
		Locales: []string{"ja"},
		Inject:  []builder.Injector{Paginate{Collection: "items", Size: 1, Dir: "p", Locale: "ja"}.Injector()},
	})

	require.Len(t, res.Outputs, 5)
	assert.Equal(t, "ja/items/index.html", res.Outputs[3].Relative())
	assert.Equal(t, "ja/items/p/2/index.html", res.Outputs[4].Relative())
	assert.Equal(t, "ja", res.Outputs[4].Resource.Locale)
}

func TestGroupBy(t *testing.T) {
	categories := []string{"a", "b", "c", "b", "b", "c", "a", "d", "c", "c"}
	res := build(t, items(10, func(i int) string { return "category: " + categories[i-1] }), builder.Options{
		Inject: []builder.Injector{GroupBy{Collection: "items", Key: "category"}.Injector()},
	})

	require.Len(t, res.Outputs, 14)
	want := []struct {
		value string
		count int
	}{{"a", 2}, {"b", 3}, {"c", 4}, {"d", 1}}
	for i, w := range want {
		r := res.Outputs[10+i].Resource
		assert.Equal(t, "items/category/"+w.value+"/index.html", res.Outputs[10+i].Relative())
		assert.Equal(t, w.value, r.Attr("category"))
		assert.Equal(t, w.count, r.Attr("count"))
	}
}

func TestGroupBy_TruncatedDates(t *testing.T) {
	dates := []string{"2014-10-10", "2015-07-15", "2015-07-20", "2015-09-10"}
	res := build(t, items(4, func(i int) string { return fmt.Sprintf("date: %q", dates[i-1]) }), builder.Options{
		Inject: []builder.Injector{GroupBy{Collection: "items", Key: "date", Dir: "archive", Truncate: 7}.Injector()},
	})

	require.Len(t, res.Outputs, 7)
	assert.Equal(t, "items/archive/2014-10/index.html", res.Outputs[4].Relative())
	assert.Equal(t, "items/archive/2015-07/index.html", res.Outputs[5].Relative())
	assert.Equal(t, 2, res.Outputs[5].Resource.Attr("count"))
	assert.Equal(t, "items/archive/2015-09/index.html", res.Outputs[6].Relative())
}

func TestGroupBy_ListAttributes(t *testing.T) {
	tags := []string{"[go, web]", "[web]", "go"}
	res := build(t, items(3, func(i int) string { return "tags: " + tags[i-1] }), builder.Options{
		Inject: []builder.Injector{GroupBy{Collection: "items", Key: "tags", Dir: "tag"}.Injector()},
	})

	require.Len(t, res.Outputs, 5)
	assert.Equal(t, 2, res.Outputs[3].Resource.Attr("count"))
	assert.Equal(t, "items/tag/go/index.html", res.Outputs[3].Relative())
	assert.Equal(t, 2, res.Outputs[4].Resource.Attr("count"))
	assert.Equal(t, "items/tag/web/index.html", res.Outputs[4].Relative())
}

func TestGroupBy_RequiresKey(t *testing.T) {
	_, err := builder.Build(context.Background(), nil, builder.Options{
		Inject: []builder.Injector{GroupBy{Collection: "items"}.Injector()},
	})
	assert.ErrorContains(t, err, "key is required")
}

func TestSitemap(t *testing.T) {
	files := []*resource.File{
		resource.NewFile(testBase, "index.yml", []byte("{}")),
		resource.NewFile(testBase, "about.yml", []byte("date: \"2024-01-02\"")),
		resource.NewFile(testBase, ".secret.yml", []byte("{}")),
		resource.NewFile(testBase, "nomap.yml", []byte("sitemap: false")),
		resource.NewFile(testBase, "about.ja.yml", []byte("{}")),
		resource.NewFile(testBase, "img/a.png", []byte("png")),
	}
	res := build(t, files, builder.Options{
		Locales: []string{"ja"},
		Inject:  []builder.Injector{Sitemap{BaseURL: "https://example.com"}.Injector()},
	})

	last := res.Outputs[len(res.Outputs)-1]
	require.Equal(t, "sitemap.xml", last.Relative())
	assert.False(t, last.Resource.Document)

	xml := string(last.Contents)
	assert.True(t, strings.HasPrefix(xml, "<?xml"))
	assert.Contains(t, xml, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, xml, "<loc>https://example.com/</loc>")
	assert.Contains(t, xml, "<loc>https://example.com/about/</loc>")
	assert.Contains(t, xml, "<lastmod>2024-01-02</lastmod>")
	assert.Contains(t, xml, "<loc>https://example.com/ja/about/</loc>")
	assert.NotContains(t, xml, "secret")
	assert.NotContains(t, xml, "nomap")
	assert.NotContains(t, xml, "a.png")
	assert.Equal(t, 3, strings.Count(xml, "<url>"))
}
