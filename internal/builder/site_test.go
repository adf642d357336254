package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0644))
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

func TestReadSources(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"index.yml":       "title: Home",
		"posts/#1.a.md":   "---\ntitle: A\n---\nbody",
		"img/logo.svg":    "<svg/>",
		"posts/_draft.md": "---\n---\n",
	})

	files, err := ReadSources(dir)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Relative())
	}
	assert.ElementsMatch(t, []string{"index.yml", "posts/#1.a.md", "img/logo.svg", "posts/_draft.md"}, rels)
}

func TestBuildSite(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	static := filepath.Join(root, "static")
	out := filepath.Join(root, "public")

	writeTree(t, content, map[string]string{
		"index.yml":      "template: home",
		"about.md":       "---\ntitle: About\n---\nabout body",
		"posts/#1.a.md":  "---\ntitle: A\n---\nA",
		"posts/_wip.md":  "---\ntitle: WIP\n---\n",
		"img/photo.jpg":  "jpg",
		"posts/.hide.md": "---\nx: 1\n---\n",
	})
	writeTree(t, static, map[string]string{
		"_redirects":    "/old /new",
		"css/style.css": "body{}",
	})
	writeTree(t, out, map[string]string{"stale.html": "old"})

	n, err := BuildSite(context.Background(), SiteOptions{
		ContentDir:       content,
		StaticDir:        static,
		OutputDir:        out,
		CleanDestination: true,
	}, Options{
		Render: func(_ context.Context, rc *RenderContext) (string, error) {
			return "home of " + rc.Page.Path, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, "home of /", readFile(t, filepath.Join(out, "index.html")))
	assert.Contains(t, readFile(t, filepath.Join(out, "about", "index.html")), "about body")
	assert.Contains(t, readFile(t, filepath.Join(out, "posts", "a", "index.html")), "A")
	assert.Equal(t, "jpg", readFile(t, filepath.Join(out, "img", "photo.jpg")))
	assert.Equal(t, "/old /new", readFile(t, filepath.Join(out, "_redirects")))
	assert.Equal(t, "body{}", readFile(t, filepath.Join(out, "css", "style.css")))

	assert.NoFileExists(t, filepath.Join(out, "stale.html"))
	assert.NoDirExists(t, filepath.Join(out, "posts", "wip"))
	assert.NoDirExists(t, filepath.Join(out, "posts", "hide"))
}

func TestCopyStatic_Collision(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	static := filepath.Join(root, "static")
	writeTree(t, content, map[string]string{"robots.txt": "generated"})
	writeTree(t, static, map[string]string{"robots.txt": "static"})

	_, err := BuildSite(context.Background(), SiteOptions{
		ContentDir: content,
		StaticDir:  static,
		OutputDir:  filepath.Join(root, "public"),
	}, Options{})

	var collision *PathCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "robots.txt", collision.Filepath)
	assert.Equal(t, "robots.txt", collision.First)
}

func TestCopyStatic_MissingDirectory(t *testing.T) {
	assert.NoError(t, CopyStatic(filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil))
}
