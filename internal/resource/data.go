// internal/resource/data.go
package resource

import (
	"bytes"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

var (
	utf8BOM         = []byte("\xef\xbb\xbf")
	yamlFrontMatter = frontmatter.NewFormat(frontMatterDelimiter, frontMatterDelimiter, yaml.Unmarshal)
)

// HasFrontMatter reports whether content opens with a `---` line that is
// closed by a later `---` line.
func HasFrontMatter(content []byte) bool {
	content = bytes.TrimPrefix(content, utf8BOM)
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 2 || string(bytes.TrimRight(lines[0], "\r")) != frontMatterDelimiter {
		return false
	}
	for _, line := range lines[1:] {
		if string(bytes.TrimRight(line, "\r")) == frontMatterDelimiter {
			return true
		}
	}
	return false
}

// parseDocument extracts attribute data and body text from a document.
// Content with front matter yields the front matter mapping and the text
// after it; anything else is decoded whole as YAML (which also accepts JSON)
// with an empty body.
func parseDocument(source string, content []byte) (any, string, error) {
	if HasFrontMatter(content) {
		var fm map[string]any
		body, err := frontmatter.MustParse(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)), &fm, yamlFrontMatter)
		if err != nil {
			return nil, "", &DataFormatError{Path: source, Err: err}
		}
		if fm == nil {
			fm = map[string]any{}
		}
		return fm, string(body), nil
	}

	var data any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, "", &DataFormatError{Path: source, Err: err}
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, "", nil
}
