// internal/config/config.go
package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"minisite/internal/builder"
	"minisite/internal/inject"
	"minisite/internal/story"
)

// EnvPrefix prefixes every environment override, e.g. MINISITE_OUTPUT.
const EnvPrefix = "MINISITE_"

// SiteConfig holds the configuration from the site.yaml file. Fields with
// an env tag can be overridden from the environment or a .env file next to
// site.yaml.
type SiteConfig struct {
	Title       string `yaml:"title" env:"TITLE"`
	Author      string `yaml:"author" env:"AUTHOR"`
	BaseURL     string `yaml:"baseurl" env:"BASEURL"`
	Description string `yaml:"description"`

	Locales       []string `yaml:"locales" env:"LOCALES" envSeparator:","`
	DefaultLocale string   `yaml:"defaultLocale" env:"DEFAULT_LOCALE"`
	// DocumentTypes left out of site.yaml selects the defaults; an empty
	// list disables extension based detection.
	DocumentTypes []string `yaml:"documentTypes"`
	Draft         bool     `yaml:"draft" env:"DRAFT"`

	Engine      string `yaml:"engine" env:"ENGINE"`
	Templates   string `yaml:"templates" env:"TEMPLATES"`
	Content     string `yaml:"content" env:"CONTENT"`
	Static      string `yaml:"static" env:"STATIC"`
	Output      string `yaml:"output" env:"OUTPUT"`
	Unsafe      bool   `yaml:"unsafe" env:"UNSAFE"`
	Concurrency int    `yaml:"concurrency" env:"CONCURRENCY"`

	// Site is handed to templates as-is. Without it templates get the
	// title, author, baseurl and description above.
	Site any `yaml:"site"`

	Paginate []inject.Paginate `yaml:"paginate"`
	Groups   []inject.GroupBy  `yaml:"groups"`
	Sitemap  *inject.Sitemap   `yaml:"sitemap"`
	Story    *StoryConfig      `yaml:"story"`

	// Dir is the directory site.yaml was loaded from. Relative paths above
	// are resolved against it.
	Dir string `yaml:"-"`
}

// StoryConfig points at an interactive fiction source compiled into the
// site on every build.
type StoryConfig struct {
	File          string `yaml:"file"`
	story.Options `yaml:",inline"`
}

// LoadSiteConfig reads site.yaml, then applies .env and environment
// overrides.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cfg := SiteConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, errors.Wrapf(err, "could not read config file at %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, errors.Wrapf(err, "could not parse config file %s", path)
	}
	cfg.Dir = filepath.Dir(path)

	if err := godotenv.Load(filepath.Join(cfg.Dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return SiteConfig{}, errors.Wrap(err, "could not load .env")
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return SiteConfig{}, errors.Wrap(err, "could not parse environment overrides")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Engine == "" {
		c.Engine = "html"
	}
	if c.Templates == "" {
		c.Templates = "templates"
	}
	if c.Content == "" {
		c.Content = "content"
	}
	if c.Static == "" {
		c.Static = "static"
	}
	if c.Output == "" {
		c.Output = "public"
	}
}

// Path resolves a configured path against the config directory.
func (c SiteConfig) Path(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// SiteData is the value templates see as the site.
func (c SiteConfig) SiteData() any {
	if c.Site != nil {
		return c.Site
	}
	return map[string]any{
		"title":       c.Title,
		"author":      c.Author,
		"baseurl":     c.BaseURL,
		"description": c.Description,
	}
}

// Injectors returns the configured build passes: the story first so that
// later passes see its pages, the sitemap last so that it sees everything.
func (c SiteConfig) Injectors() []builder.Injector {
	var passes []builder.Injector
	if c.Story != nil && c.Story.File != "" {
		passes = append(passes, story.Injector(c.Path(c.Story.File), c.Story.Options))
	}
	for _, p := range c.Paginate {
		passes = append(passes, p.Injector())
	}
	for _, g := range c.Groups {
		passes = append(passes, g.Injector())
	}
	if c.Sitemap != nil {
		sm := *c.Sitemap
		if sm.BaseURL == "" {
			sm.BaseURL = c.BaseURL
		}
		passes = append(passes, sm.Injector())
	}
	return passes
}

// BuildOptions maps the configuration onto builder options. The render
// function is left for the caller to choose.
func (c SiteConfig) BuildOptions(logger *slog.Logger) builder.Options {
	return builder.Options{
		Locales:       c.Locales,
		DefaultLocale: c.DefaultLocale,
		Site:          c.SiteData(),
		DocumentTypes: c.DocumentTypes,
		Draft:         c.Draft,
		Inject:        c.Injectors(),
		Concurrency:   c.Concurrency,
		Logger:        logger,
	}
}

// SiteOptions locates the content, static and output directories.
func (c SiteConfig) SiteOptions(clean bool) builder.SiteOptions {
	return builder.SiteOptions{
		ContentDir:       c.Path(c.Content),
		StaticDir:        c.Path(c.Static),
		OutputDir:        c.Path(c.Output),
		CleanDestination: clean,
	}
}
