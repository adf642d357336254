package builder

import (
	"path/filepath"

	"minisite/internal/resource"
)

// Spec is the plain form of an injected file: a path relative to the
// content root and string or byte contents.
type Spec struct {
	Path     string
	Contents any
}

func (s Spec) file(base string) (*resource.File, error) {
	if s.Path == "" {
		return nil, &InvalidInjectionError{Value: s, Reason: "empty path"}
	}
	var contents []byte
	switch c := s.Contents.(type) {
	case nil:
	case string:
		contents = []byte(c)
	case []byte:
		contents = c
	default:
		return nil, &InvalidInjectionError{Value: s.Contents, Reason: "contents must be a string or []byte"}
	}
	p := filepath.FromSlash(s.Path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return &resource.File{Base: base, Path: p, Contents: contents}, nil
}

// normalizeInjection flattens whatever an injector returned into a list of
// source files.
func normalizeInjection(v any, base string) ([]*resource.File, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []*resource.File:
		for _, f := range v {
			if f == nil {
				return nil, &InvalidInjectionError{Value: v, Reason: "nil file"}
			}
		}
		return v, nil
	case []resource.File:
		files := make([]*resource.File, len(v))
		for i := range v {
			files[i] = &v[i]
		}
		return files, nil
	case []Spec:
		files := make([]*resource.File, 0, len(v))
		for _, s := range v {
			f, err := s.file(base)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		return files, nil
	case []any:
		files := make([]*resource.File, 0, len(v))
		for _, item := range v {
			f, err := normalizeOne(item, base)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		return files, nil
	default:
		f, err := normalizeOne(v, base)
		if err != nil {
			return nil, err
		}
		return []*resource.File{f}, nil
	}
}

func normalizeOne(v any, base string) (*resource.File, error) {
	switch v := v.(type) {
	case *resource.File:
		if v == nil {
			return nil, &InvalidInjectionError{Value: v, Reason: "nil file"}
		}
		return v, nil
	case resource.File:
		return &v, nil
	case Spec:
		return v.file(base)
	case *Spec:
		if v == nil {
			return nil, &InvalidInjectionError{Value: v, Reason: "nil spec"}
		}
		return v.file(base)
	case map[string]any:
		p, ok := v["path"].(string)
		if !ok {
			return nil, &InvalidInjectionError{Value: v, Reason: "missing string path"}
		}
		return Spec{Path: p, Contents: v["contents"]}.file(base)
	default:
		return nil, &InvalidInjectionError{Value: v}
	}
}
