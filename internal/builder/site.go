// internal/builder/site.go
package builder

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"minisite/internal/logfields"
	"minisite/internal/resource"
)

// SiteOptions locates a site on disk.
type SiteOptions struct {
	ContentDir       string
	StaticDir        string
	OutputDir        string
	CleanDestination bool
}

// BuildSite reads the content directory, builds it, writes the outputs and
// copies the static directory. It returns the number of files written by
// the pipeline.
func BuildSite(ctx context.Context, site SiteOptions, opts Options) (int, error) {
	opts = opts.withDefaults()
	base, err := filepath.Abs(site.ContentDir)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	opts.Base = base

	files, err := ReadSources(base)
	if err != nil {
		return 0, err
	}
	result, err := Build(ctx, files, opts)
	if err != nil {
		return 0, err
	}

	if err := prepareOutput(site.OutputDir, site.CleanDestination, opts); err != nil {
		return 0, err
	}
	written, err := WriteSite(site.OutputDir, result.Outputs)
	if err != nil {
		return 0, err
	}

	if site.StaticDir != "" {
		if err := CopyStatic(site.StaticDir, site.OutputDir, result.Outputs); err != nil {
			return 0, err
		}
	}
	opts.Logger.Info("site built", logfields.Count(written), logfields.Path(site.OutputDir))
	return written, nil
}

func prepareOutput(outputDir string, clean bool, opts Options) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "create output directory %s", outputDir)
	}
	if !clean {
		return nil
	}
	opts.Logger.Debug("cleaning destination directory", logfields.Path(outputDir))
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return errors.Wrapf(err, "read output directory %s", outputDir)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(outputDir, entry.Name())); err != nil {
			return errors.Wrapf(err, "clean %s", entry.Name())
		}
	}
	return nil
}

// ReadSources loads every regular file below contentDir, in lexical walk
// order, as a source file rooted at contentDir.
func ReadSources(contentDir string) ([]*resource.File, error) {
	base, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var files []*resource.File
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		contents, err := os.ReadFile(p)
		if err != nil {
			return errors.Wrapf(err, "read %s", p)
		}
		files = append(files, &resource.File{Base: base, Path: p, Contents: contents})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", contentDir)
	}
	return files, nil
}

// WriteSite writes every output below outputDir at its relative path.
func WriteSite(outputDir string, outputs []*Output) (int, error) {
	for _, o := range outputs {
		dest := filepath.Join(outputDir, filepath.FromSlash(o.Relative()))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return 0, errors.Wrapf(err, "create directory for %s", dest)
		}
		if err := os.WriteFile(dest, o.Contents, 0644); err != nil {
			return 0, errors.Wrapf(err, "write %s", dest)
		}
	}
	return len(outputs), nil
}

// CopyStatic copies staticDir into outputDir verbatim. A static file that
// lands on a pipeline output is a PathCollisionError. A missing staticDir is
// not an error.
func CopyStatic(staticDir, outputDir string, outputs []*Output) error {
	if _, err := os.Stat(staticDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	produced := make(map[string]string, len(outputs))
	for _, o := range outputs {
		src := ""
		if o.Resource != nil {
			src = o.Resource.SrcRelative
		}
		produced[o.Relative()] = src
	}

	return filepath.WalkDir(staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(staticDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if src, ok := produced[rel]; ok {
			return &PathCollisionError{Filepath: rel, First: src, Second: filepath.Join(staticDir, rel)}
		}
		return copyFile(p, filepath.Join(outputDir, filepath.FromSlash(rel)))
	})
}

func copyFile(srcPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", dest)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer src.Close()
	dst, err := os.Create(dest)
	if err != nil {
		return errors.WithStack(err)
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return errors.Wrapf(err, "copy %s", srcPath)
}
