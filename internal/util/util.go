package util

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ComputeBaseHref calculates the relative path from a page URL back to the
// site root so that CSS/JS links work for pages at any depth. A document at
// /posts/a/ gets "../../"; the root page gets "".
func ComputeBaseHref(urlPath string) string {
	dir := urlPath
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
	}
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return ""
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1)
}

// RelURL turns a site absolute path into one relative to the page at
// urlPath.
func RelURL(urlPath, target string) string {
	if !strings.HasPrefix(target, "/") {
		return target
	}
	rel := ComputeBaseHref(urlPath) + strings.TrimPrefix(target, "/")
	if rel == "" {
		return "./"
	}
	return rel
}

// AbsURL joins a site absolute path onto baseURL.
func AbsURL(baseURL, target string) string {
	if baseURL == "" {
		return target
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(target, "/")
}

var (
	nonSlug     = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen = regexp.MustCompile(`-{2,}`)
	stripMarks  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify turns a title into a file name safe slug: accents are removed,
// everything else outside [a-z0-9] collapses into single hyphens.
func Slugify(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		result = s
	}
	result = strings.ToLower(result)
	result = nonSlug.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
