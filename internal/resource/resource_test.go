package resource

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "/root/base"

func newTestResource(t *testing.T, rel, content string, opts Options) *Resource {
	t.Helper()
	r, err := New(NewFile(testBase, rel, []byte(content)), opts)
	require.NoError(t, err)
	return r
}

func TestNew_DocumentPaths(t *testing.T) {
	tests := []struct {
		rel          string
		path         string
		filepath     string
		dirnames     []string
		resourceID   string
		collectionID string
	}{
		{"index.yml", "/", "index.html", nil, "", ""},
		{"foo.yml", "/foo/", "foo/index.html", []string{"foo"}, "foo", ""},
		{"foo/bar.yml", "/foo/bar/", "foo/bar/index.html", []string{"foo", "bar"}, "foo/bar", "foo"},
		{"foo/bar/baz.yml", "/foo/bar/baz/", "foo/bar/baz/index.html", []string{"foo", "bar", "baz"}, "foo/bar/baz", "foo/bar"},
		{"items/index.yml", "/items/", "items/index.html", []string{"items"}, "items", "items"},
		{"#01.hello.yml", "/hello/", "hello/index.html", []string{"hello"}, "hello", ""},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			r := newTestResource(t, tt.rel, "{}", Options{})
			require.True(t, r.Document)
			assert.Equal(t, tt.path, r.Path)
			assert.Equal(t, filepath.Join(testBase, filepath.FromSlash(tt.filepath)), r.Filepath)
			assert.Equal(t, tt.dirnames, r.Dirnames)
			assert.Equal(t, tt.resourceID, r.ResourceID)
			assert.Equal(t, tt.collectionID, r.CollectionID)
		})
	}
}

func TestNew_Asset(t *testing.T) {
	r := newTestResource(t, "css/site.css", "body{}", Options{})
	assert.False(t, r.Document)
	assert.False(t, r.Index)
	assert.Equal(t, "/css/site.css", r.Path)
	assert.Equal(t, filepath.Join(testBase, "css", "site.css"), r.Filepath)
	assert.Equal(t, "css/site.css", r.ResourceID)
	assert.Nil(t, r.Data)
	assert.Empty(t, r.Body)
}

func TestNew_Locales(t *testing.T) {
	t.Run("prefixes non default locale", func(t *testing.T) {
		r := newTestResource(t, "hello.ja.yml", "{}", Options{Locales: []string{"ja"}})
		assert.Equal(t, "ja", r.Locale)
		assert.Equal(t, "/ja/hello/", r.Path)
		assert.Equal(t, filepath.Join(testBase, "ja", "hello", "index.html"), r.Filepath)
		assert.Equal(t, "hello", r.ResourceID)
	})

	t.Run("prefixes assets too", func(t *testing.T) {
		r := newTestResource(t, "hello.ja.txt", "", Options{Locales: []string{"ja"}})
		assert.Equal(t, filepath.Join(testBase, "ja", "hello.txt"), r.Filepath)
	})

	t.Run("omits default locale", func(t *testing.T) {
		r := newTestResource(t, "hello.ja.yml", "{}", Options{Locales: []string{"ja"}, DefaultLocale: "ja"})
		assert.Equal(t, "/hello/", r.Path)
	})

	t.Run("assigns default locale", func(t *testing.T) {
		r := newTestResource(t, "hello.yml", "{}", Options{Locales: []string{"ja"}, DefaultLocale: "ja"})
		assert.Equal(t, "ja", r.Locale)
		assert.Equal(t, "/hello/", r.Path)
	})

	t.Run("no locale without default", func(t *testing.T) {
		r := newTestResource(t, "hello.yml", "{}", Options{Locales: []string{"ja"}})
		assert.Empty(t, r.Locale)
		assert.Equal(t, "/hello/", r.Path)
	})

	t.Run("ignores unknown locale", func(t *testing.T) {
		r := newTestResource(t, "hello.ja.yml", "{}", Options{Locales: []string{"en"}})
		assert.Equal(t, "/hello.ja/", r.Path)
		assert.Equal(t, "hello.ja", r.Slug)
	})

	t.Run("same resource id across locales", func(t *testing.T) {
		opts := Options{Locales: []string{"en", "ja"}, DefaultLocale: "en"}
		en := newTestResource(t, "bar/baz.yml", "{}", opts)
		ja := newTestResource(t, "bar/baz.ja.yml", "{}", opts)
		assert.Equal(t, en.ResourceID, ja.ResourceID)
		assert.NotEqual(t, en.Filepath, ja.Filepath)
	})
}

func TestNew_DocumentDetection(t *testing.T) {
	t.Run("json by extension", func(t *testing.T) {
		r := newTestResource(t, "hello.json", `{"title":"Hello","description":"Hello World"}`, Options{})
		require.True(t, r.Document)
		assert.Equal(t, "Hello", r.Attr("title"))
		assert.Equal(t, "Hello World", r.Attr("description"))
	})

	t.Run("empty document types", func(t *testing.T) {
		r := newTestResource(t, "hello.yml", "title: Hello\n", Options{DocumentTypes: []string{}})
		assert.False(t, r.Document)
		assert.Equal(t, "/hello.yml", r.Path)
	})

	t.Run("front matter sniffing", func(t *testing.T) {
		r := newTestResource(t, "about.html", "---\ntitle: About\n---\n<p>hi</p>\n", Options{})
		require.True(t, r.Document)
		assert.Equal(t, "/about/", r.Path)
		assert.Equal(t, "About", r.Attr("title"))
		assert.Equal(t, "<p>hi</p>", strings.TrimSpace(r.Body))
	})

	t.Run("plain text stays an asset", func(t *testing.T) {
		r := newTestResource(t, "hello.txt", "Hello", Options{})
		assert.False(t, r.Document)
	})
}

func TestNew_Data(t *testing.T) {
	t.Run("front matter and body", func(t *testing.T) {
		r := newTestResource(t, "bar.md", "---\ntitle: hello\n---\nBar", Options{DocumentTypes: []string{"md"}})
		assert.Equal(t, map[string]any{"title": "hello"}, r.Data)
		assert.Equal(t, "Bar", strings.TrimSpace(r.Body))
	})

	t.Run("whole file yaml has empty body", func(t *testing.T) {
		r := newTestResource(t, "foo.yml", "title: Foo\n", Options{})
		assert.Equal(t, map[string]any{"title": "Foo"}, r.Data)
		assert.Equal(t, "", r.Body)
	})

	t.Run("empty yaml", func(t *testing.T) {
		r := newTestResource(t, "hello.yml", "", Options{})
		assert.Equal(t, map[string]any{}, r.Data)
	})

	t.Run("scalar yaml", func(t *testing.T) {
		r := newTestResource(t, "baz.yml", "Baz", Options{})
		assert.Equal(t, "Baz", r.Data)
		assert.Empty(t, r.Attributes)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := New(NewFile(testBase, "hello.yml", []byte("x:\nx")), Options{})
		require.Error(t, err)
		var derr *DataFormatError
		require.True(t, errors.As(err, &derr))
		assert.Equal(t, "hello.yml", derr.Path)
		assert.Contains(t, err.Error(), "hello.yml")
	})
}

func TestNew_ReservedAttribute(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	r := newTestResource(t, "foo.yml", "resourceId: id\ntitle: Foo\n", Options{Logger: logger})

	assert.Equal(t, "foo", r.ResourceID)
	assert.Equal(t, "foo", r.Attr("resourceId"))
	assert.Equal(t, "id", r.Data.(map[string]any)["resourceId"])
	assert.Equal(t, "Foo", r.Attr("title"))
	assert.NotContains(t, r.Attributes, "resourceId")
	assert.Contains(t, logs.String(), "reserved")
	assert.Contains(t, logs.String(), "key=resourceId")
}

func TestNew_HiddenAndOrder(t *testing.T) {
	hidden := newTestResource(t, "items/.foo.yml", "{}", Options{})
	assert.True(t, hidden.Hidden)
	assert.False(t, hidden.Draft)
	assert.Equal(t, "/items/foo/", hidden.Path)

	plain := newTestResource(t, "foo.yml", "{}", Options{})
	assert.Empty(t, plain.Order)
	ordered := newTestResource(t, "#1.bar.yml", "{}", Options{})
	assert.Equal(t, "1", ordered.Order)
	assert.Equal(t, "bar", ordered.Slug)
}

func TestTemplate(t *testing.T) {
	named := newTestResource(t, "a.yml", "template: page.html\n", Options{})
	assert.True(t, named.HasTemplate())
	assert.Equal(t, "page.html", named.Template())

	flagged := newTestResource(t, "b.yml", "template: true\n", Options{})
	assert.True(t, flagged.HasTemplate())
	assert.Empty(t, flagged.Template())

	none := newTestResource(t, "c.yml", "title: C\n", Options{})
	assert.False(t, none.HasTemplate())
}

func TestNew_IdempotentIdentity(t *testing.T) {
	opts := Options{Locales: []string{"en", "ja"}, DefaultLocale: "en"}
	for _, rel := range []string{"index.yml", "a/b.ja.yml", "a/#2.c.yml", "img/logo.png"} {
		a := newTestResource(t, rel, "{}", opts)
		b := newTestResource(t, rel, "{}", opts)
		assert.Equal(t, a.Path, b.Path, rel)
		assert.Equal(t, a.Filepath, b.Filepath, rel)
		assert.Equal(t, a.ResourceID, b.ResourceID, rel)
		assert.Equal(t, a.CollectionID, b.CollectionID, rel)
	}
}

func TestPathRoundTrip(t *testing.T) {
	for _, rel := range []string{"foo.yml", "a/b/c.yml", "x/y.yml"} {
		r := newTestResource(t, rel, "{}", Options{})
		segments := strings.Split(strings.Trim(r.Path, "/"), "/")
		assert.Equal(t, r.Dirnames, segments, rel)
		assert.Equal(t, strings.TrimSuffix(rel, ".yml"), r.ResourceID, rel)
	}
}
