// internal/resource/name.go
package resource

import (
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

const (
	// DraftMarker prefixes a directory or file name that is excluded from
	// the build unless drafts are enabled.
	DraftMarker = "_"
	// HiddenMarker prefixes a file name whose document is kept in the graph
	// but never written out.
	HiddenMarker = "."
)

// basenamePattern splits a file stem into marker, order tag, slug and a
// trailing tag which may or may not be a locale.
var basenamePattern = regexp.MustCompile(`^([._]?)(?:#([^.]*)\.)?(.+?)(?:\.([^.]+))?$`)

// ParsedName is the structural metadata encoded in a source file name.
type ParsedName struct {
	// SourceDirnames are the directory segments exactly as they appear on disk.
	SourceDirnames []string
	// Dirnames are SourceDirnames with the draft marker stripped.
	Dirnames  []string
	Basename  string
	Extension string
	Order     string
	Slug      string
	Locale    string
	Hidden    bool
	Draft     bool
}

// ParseName derives a ParsedName from a slash or OS separated path relative
// to the content root. A trailing tag only counts as a locale when it is
// listed in locales.
func ParseName(relative string, locales []string) (ParsedName, error) {
	relative = filepath.ToSlash(relative)

	name := path.Base(relative)
	ext := path.Ext(name)
	if ext == name && !isDocumentExt(ext) {
		// dotfiles such as .htaccess have no extension
		ext = ""
	}
	basename := strings.TrimSuffix(name, ext)

	var sourceDirs []string
	for _, seg := range strings.Split(path.Dir(relative), "/") {
		if seg != "." && seg != "" {
			sourceDirs = append(sourceDirs, seg)
		}
	}

	m := basenamePattern.FindStringSubmatch(basename)
	if m == nil {
		return ParsedName{}, &ParseError{Path: relative}
	}
	marker, order, slug, tag := m[1], m[2], m[3], m[4]
	if !validSlug(slug) {
		return ParsedName{}, &ParseError{Path: relative}
	}

	pn := ParsedName{
		SourceDirnames: sourceDirs,
		Dirnames:       make([]string, 0, len(sourceDirs)),
		Basename:       basename,
		Extension:      strings.TrimPrefix(ext, "."),
		Order:          order,
		Hidden:         marker == HiddenMarker,
	}

	for _, seg := range sourceDirs {
		pn.Dirnames = append(pn.Dirnames, strings.TrimPrefix(seg, DraftMarker))
		if strings.HasPrefix(seg, DraftMarker) {
			pn.Draft = true
		}
	}
	if strings.HasPrefix(basename, DraftMarker) {
		pn.Draft = true
	}

	switch {
	case tag != "" && slices.Contains(locales, tag):
		pn.Slug = slug
		pn.Locale = tag
	case tag != "":
		pn.Slug = slug + "." + tag
	default:
		pn.Slug = slug
	}

	return pn, nil
}

// documentExts are the extensions a bare dotfile such as ".yml" keeps, which
// leaves it without a stem.
var documentExts = []string{".yml", ".yaml", ".json", ".md"}

func isDocumentExt(ext string) bool {
	return slices.Contains(documentExts, ext)
}

// validSlug rejects what the pattern captures when the stem has no slug: an
// unterminated order prefix ("#01."), a trailing dot, or markers only.
func validSlug(slug string) bool {
	if strings.HasPrefix(slug, "#") || strings.HasSuffix(slug, ".") {
		return false
	}
	return strings.Trim(slug, HiddenMarker+DraftMarker) != ""
}
