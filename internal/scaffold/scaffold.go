// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"minisite/internal/config"
	"minisite/internal/logfields"
	"minisite/internal/util"
)

// ArchetypeDir holds the front matter templates used by CreateNewContent.
const ArchetypeDir = "archetypes"

// CreateNewSite writes a starter site into dir. An existing non-empty
// directory is left alone.
func CreateNewSite(dir string) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return fmt.Errorf("directory %s already exists and is not empty", dir)
	}

	for _, d := range []string{"content", "static/css", "templates/layouts", "templates/partials", ArchetypeDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	files := map[string]string{
		"site.yaml":                      siteYamlContent,
		"site.biff":                      siteBiffContent,
		"content/index.md":               contentIndexContent,
		"static/css/style.css":           staticCssContent,
		"templates/layouts/base.html":    templateLayoutHtmlContent,
		"templates/partials/header.html": templateHeaderHtmlContent,
		"templates/partials/footer.html": templateFooterHtmlContent,
		"templates/page.html":            templatePageHtmlContent,
		"templates/knot.html":            templateKnotHtmlContent,
		"archetypes/default.md":          archetypeDefaultMdContent,
	}
	for p, content := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(p)), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", p, err)
		}
	}
	slog.Info("site scaffolded", logfields.Path(dir), logfields.Count(len(files)))
	return nil
}

// CreateNewContent writes <content>/<section>/<slug>.md from the section's
// archetype, falling back to archetypes/default.md and then to a built-in
// one. It returns the path written.
func CreateNewContent(section, title, configPath string) (string, error) {
	site, err := config.LoadSiteConfig(configPath)
	if err != nil {
		return "", err
	}

	slug := util.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q has no usable characters for a file name", title)
	}
	target := filepath.Join(site.Path(site.Content), filepath.FromSlash(section), slug+".md")
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("content file %s already exists", target)
	}

	src, name, err := readArchetype(site.Path(ArchetypeDir), section)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse archetype %s", name)
	}

	data := struct {
		Title   string
		Author  string
		Section string
		Date    string
	}{
		Title:   title,
		Author:  site.Author,
		Section: section,
		Date:    time.Now().Format("2006-01-02"),
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", errors.Wrap(err, "failed to execute archetype template")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.WriteFile(target, out.Bytes(), 0644); err != nil {
		return "", errors.WithStack(err)
	}
	slog.Info("content created", logfields.Path(target))
	return target, nil
}

func readArchetype(dir, section string) (string, string, error) {
	for _, name := range []string{filepath.Base(section) + ".md", "default.md"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(b), name, nil
		}
		if !os.IsNotExist(err) {
			return "", "", errors.Wrapf(err, "could not read archetype %s", name)
		}
	}
	return archetypeDefaultMdContent, "default.md", nil
}

const siteYamlContent = `title: My Site
author: Your Name
baseurl: /
description: A new site powered by minisite.
engine: html

# Locales recognised in file names, e.g. about.ja.md.
# locales: [ja]

story:
  file: site.biff
  dir: story
  template: knot

# paginate:
#   - collection: posts
#     size: 10
#     template: page
# groups:
#   - collection: posts
#     key: tags
#     dir: tag
#     template: page
# sitemap:
#   baseurl: https://example.com
`

const siteBiffContent = `// title: My Enchanted Garden
// author: A. Writer
// description: A mazing site.
// STATES: has_water, has_seed
// FLAG-STATES: unlocked_gate, puzzle_solved
// LOCAL-STATES: door

=== index ===
// title: Home
You are at the start.
* Go outside -> outside

=== outside ===
// title: The Great Outdoors
- {door == true}
  You are outside. This is the end.
  Hope you had fun

END
`

const contentIndexContent = `---
title: Home
template: page
---

Welcome. [Start the story](story/index.md).
`

const archetypeDefaultMdContent = `---
title: {{.Title}}
author: {{.Author}}
date: "{{.Date}}"
template: page
description:
---

Write something meaningful here.
`

const staticCssContent = `body {
  font-family: sans-serif;
  max-width: 700px;
  margin: 2em auto;
  padding: 0 1em;
  line-height: 1.6;
  color: #222;
  background: #fdfdfd;
}
.header-line {
  display: flex;
  justify-content: space-between;
  align-items: baseline;
  gap: 1em;
  margin-bottom: 2em;
  flex-wrap: wrap;
}
.site-name { font-size: 0.9em; color: #777; font-style: italic; flex-grow: 1; text-align: left; }
.story-title { font-size: 1.2em; font-weight: 400; flex-grow: 1; text-align: center; }
main { margin-bottom: 3em; }
footer { text-align: center; font-size: 0.9em; color: #555; }
footer nav a { color: #444; text-decoration: none; margin: 0 0.5em; }
footer nav a:hover { text-decoration: underline; }
ul { margin-left: 1.2em; padding-left: 1.2em; list-style-type: disc; }
li { margin-bottom: 0.25em; }
hr { border: none; border-top: 1px solid #ccc; width: 33%; margin: 2em auto; }
`

const templateLayoutHtmlContent = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ with attr .Page "title" }}{{ . }} | {{ end }}{{ .Site.title }}</title>
  <link rel="stylesheet" href="{{ baseHref .Page }}css/style.css">
  <meta name="description" content="{{ with attr .Page "description" }}{{ . }}{{ else }}{{ .Site.description }}{{ end }}">
</head>
<body>
  {{ template "partials/header.html" . }}
  <main>
    {{ block "main" . }}{{ end }}
  </main>
  {{ template "partials/footer.html" . }}
</body>
</html>
`

const templateHeaderHtmlContent = `<header>
  <div class="header-line">
    <div class="site-name">{{ .Site.title }}</div>
    {{ with attr .Page "story_title" }}<div class="story-title">{{ . }}</div>{{ end }}
  </div>
</header>
`

const templateFooterHtmlContent = `<footer>
  <nav>
    <a href="{{ relURL .Page "/" }}">home</a>
  </nav>
  <div class="copyright">
    &copy; {{ .Site.author }}
  </div>
</footer>
`

const templatePageHtmlContent = `{{ define "main" }}
<h1>{{ attr .Page "title" }}</h1>
{{ markdown .Page.Body .Page }}
{{ end }}{{ template "layouts/base.html" . }}`

const templateKnotHtmlContent = `{{ define "main" }}
{{ markdown .Page.Body .Page }}
{{ end }}{{ template "layouts/base.html" . }}`
