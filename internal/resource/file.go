package resource

import (
	"path/filepath"
)

// File is one source file as handed to the builder: an absolute (or
// Base-rooted) path, the content root it is relative to, and its raw bytes.
type File struct {
	Base     string
	Path     string
	Contents []byte
}

// NewFile roots a relative path under base.
func NewFile(base, relative string, contents []byte) *File {
	return &File{
		Base:     base,
		Path:     filepath.Join(base, filepath.FromSlash(relative)),
		Contents: contents,
	}
}

// Relative returns the slash separated path of the file below Base.
func (f *File) Relative() string {
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil {
		return filepath.ToSlash(f.Path)
	}
	return filepath.ToSlash(rel)
}
