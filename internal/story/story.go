// internal/story/story.go
package story

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/verkaro/bigif/bigif"
	"github.com/verkaro/editml-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"minisite/internal/builder"
	"minisite/internal/resource"
)

// Options controls where compiled knots land and how they render.
type Options struct {
	// Dir is the content subdirectory the story is published under.
	Dir string `yaml:"dir"`
	// Template is set on every generated page.
	Template string `yaml:"template"`
}

// Page is one compiled knot: a markdown document with front matter, at a
// slash separated path relative to the content root.
type Page struct {
	Path     string
	Contents []byte
}

var (
	knotPattern = regexp.MustCompile(`^\s*===\s*([\w-]+)\s*===\s*$`)
	unsafeChars = regexp.MustCompile(`[^\w- ]+`)
	hyphenRuns  = regexp.MustCompile(`-+`)
	titleCaser  = cases.Title(language.English)
)

// knotMeta reads the `// key: value` comments that follow each knot header
// in the raw story source.
func knotMeta(src []byte) (map[string]map[string]string, error) {
	data := make(map[string]map[string]string)
	var current string

	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := strings.TrimFunc(scanner.Text(), unicode.IsSpace)

		if m := knotPattern.FindStringSubmatch(line); len(m) > 1 {
			current = m[1]
			if data[current] == nil {
				data[current] = make(map[string]string)
			}
			continue
		}

		if current != "" && strings.HasPrefix(line, "//") {
			key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "//")), ":")
			if ok {
				data[current][strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// cleanView resolves EditML markup in a knot body into plain markdown.
func cleanView(raw string) (string, error) {
	nodes, parseIssues := editml.Parse(raw)
	if len(parseIssues) > 0 && parseIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml parsing error: %s", parseIssues[0].Message)
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	if len(transformIssues) > 0 && transformIssues[0].Severity == editml.SeverityError {
		return "", fmt.Errorf("editml transformation error: %s", transformIssues[0].Message)
	}
	return clean, nil
}

// titleAndBody picks the page title (knot comment, then the first H1, then
// the knot name) and strips H1 lines from the body.
func titleAndBody(knot, content string, meta map[string]string) (string, string) {
	title := meta["title"]
	var heading string
	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimFunc(line, unicode.IsSpace)
		if strings.HasPrefix(trimmed, "# ") {
			if heading == "" {
				heading = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			}
			continue
		}
		lines = append(lines, line)
	}
	body := strings.TrimSpace(strings.Join(lines, "\n"))

	if title == "" {
		title = heading
	}
	if title == "" {
		title = titleCaser.String(strings.ReplaceAll(knot, "_", " "))
	}
	return title, body
}

type compiled struct {
	Metadata map[string]string `json:"metadata"`
	Graph    struct {
		Nodes map[string]*bigif.StoryNode `json:"nodes"`
	} `json:"graph"`
}

// Pages compiles a .biff story into one markdown document per story node,
// sorted by path. Choices become relative links between the documents.
func Pages(src []byte, opts Options) ([]Page, error) {
	meta, err := knotMeta(src)
	if err != nil {
		return nil, errors.Wrap(err, "read knot metadata")
	}

	jsonBytes, err := bigif.Compile(string(src))
	if err != nil {
		return nil, errors.Wrap(err, "biff syntax error")
	}
	var story compiled
	if err := json.Unmarshal(jsonBytes, &story); err != nil {
		return nil, errors.Wrap(err, "decode compiled story")
	}

	paths := nodePaths(story.Graph.Nodes, opts.Dir)
	pages := make([]Page, 0, len(story.Graph.Nodes))
	for id, node := range story.Graph.Nodes {
		km := meta[node.KnotName]
		title, raw := titleAndBody(node.KnotName, node.Content, km)
		body, err := cleanView(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "knot %s", node.KnotName)
		}

		fm := map[string]any{"title": title}
		for k, v := range km {
			if k != "title" && !resource.IsReserved(k) {
				fm[k] = v
			}
		}
		if v, ok := story.Metadata["title"]; ok {
			fm["story_title"] = v
		}
		if v, ok := story.Metadata["author"]; ok {
			fm["story_author"] = v
		}
		if opts.Template != "" {
			fm["template"] = opts.Template
		}
		head, err := yaml.Marshal(fm)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		var buf bytes.Buffer
		buf.WriteString("---\n")
		buf.Write(head)
		buf.WriteString("---\n\n")
		fmt.Fprintf(&buf, "## %s\n\n%s\n\n", title, body)
		for _, edge := range node.Edges {
			fmt.Fprintf(&buf, "* [%s](%s)\n", edge.Text, relLink(paths[id], paths[edge.TargetNodeID]))
		}
		pages = append(pages, Page{Path: paths[id], Contents: buf.Bytes()})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, nil
}

// Injector compiles the story file at biffPath on every build and injects
// its pages. A missing file injects nothing.
func Injector(biffPath string, opts Options) builder.Injector {
	return func(context.Context, *builder.State, *builder.Options) (any, error) {
		src, err := os.ReadFile(biffPath)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		pages, err := Pages(src, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "compile %s", biffPath)
		}
		specs := make([]builder.Spec, len(pages))
		for i, p := range pages {
			specs[i] = builder.Spec{Path: p.Path, Contents: p.Contents}
		}
		return specs, nil
	}
}

// Compile writes the pages of the story at biffPath below contentDir and
// returns how many were written.
func Compile(biffPath, contentDir string, opts Options) (int, error) {
	src, err := os.ReadFile(biffPath)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	pages, err := Pages(src, opts)
	if err != nil {
		return 0, err
	}
	for _, p := range pages {
		target := filepath.Join(contentDir, filepath.FromSlash(p.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return 0, errors.Wrap(err, "create directory for story file")
		}
		if err := os.WriteFile(target, p.Contents, 0644); err != nil {
			return 0, errors.Wrapf(err, "write story file %s", target)
		}
	}
	return len(pages), nil
}

func nodePaths(nodes map[string]*bigif.StoryNode, dir string) map[string]string {
	paths := make(map[string]string, len(nodes))
	for id, node := range nodes {
		segs := []string{dir}
		if node.Scene != "" {
			for _, seg := range strings.Split(node.Scene, "/") {
				segs = append(segs, sanitize(seg))
			}
		}
		parts := []string{sanitize(node.KnotName)}
		var flags []string
		for k, v := range node.State {
			if v {
				flags = append(flags, sanitize(k))
			}
		}
		sort.Strings(flags)
		parts = append(parts, flags...)
		paths[id] = path.Join(append(segs, strings.Join(parts, "-")+".md")...)
	}
	return paths
}

func relLink(from, to string) string {
	rel, err := filepath.Rel(path.Dir(from), to)
	if err != nil {
		return to
	}
	return filepath.ToSlash(rel)
}

func sanitize(s string) string {
	s = strings.ToLower(s)
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	return hyphenRuns.ReplaceAllString(s, "-")
}
