// cmd/minisite/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"minisite/internal/builder"
	"minisite/internal/config"
	"minisite/internal/engine"
	"minisite/internal/logfields"
	"minisite/internal/scaffold"
	"minisite/internal/server"
	"minisite/internal/story"
)

const defaultStoryFile = "site.biff"

type appConfig struct {
	verbose    bool
	unsafe     bool
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("operation failed", logfields.Error(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &appConfig{}
	root := &cobra.Command{
		Use:           "minisite",
		Short:         "minisite - a static site generator built from file names",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if app.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging.")
	root.PersistentFlags().BoolVar(&app.unsafe, "unsafe", false, "Disable HTML sanitization. Allows all raw HTML.")
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "site.yaml", "Path to the site configuration.")

	root.AddCommand(app.genCmd(), app.serveCmd(), app.newCmd(), app.storyCmd())
	return root
}

func (a *appConfig) genCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Short: "Generate the site from content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSiteConfig(a.configPath)
			if err != nil {
				return err
			}
			n, err := a.build(cmd.Context(), cfg, true)
			if err != nil {
				return fmt.Errorf("site generation failed: %w", err)
			}
			fmt.Printf("✅ Success! Generated %d files.\n", n)
			return nil
		},
	}
}

func (a *appConfig) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local dev server with auto-rebuild",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSiteConfig(a.configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watch := []string{cfg.Path(cfg.Content), cfg.Path(cfg.Templates), cfg.Path(cfg.Static), a.configPath}
			if cfg.Story != nil && cfg.Story.File != "" {
				watch = append(watch, cfg.Path(cfg.Story.File))
			}

			first := true
			rebuild := func(ctx context.Context) error {
				// site.yaml may have changed since the last build.
				cfg, err := config.LoadSiteConfig(a.configPath)
				if err != nil {
					return err
				}
				_, err = a.build(ctx, cfg, first)
				first = false
				return err
			}
			return server.Run(ctx, server.Options{
				Port:      port,
				OutputDir: cfg.Path(cfg.Output),
				Watch:     watch,
				Logger:    slog.Default(),
			}, rebuild)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 1313, "Port for the local development server.")
	return cmd
}

func (a *appConfig) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new (site <name> | <section> <title>)",
		Short: "Create a new site scaffold, or new content from an archetype",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "site" {
				if err := scaffold.CreateNewSite(args[1]); err != nil {
					return err
				}
				fmt.Println("Site scaffolded. You can now:")
				fmt.Println("  cd", args[1])
				fmt.Println("  minisite serve")
				return nil
			}
			p, err := scaffold.CreateNewContent(args[0], args[1], a.configPath)
			if err != nil {
				return err
			}
			fmt.Println("Created:", p)
			return nil
		},
	}
}

func (a *appConfig) storyCmd() *cobra.Command {
	var (
		input       string
		output      string
		contentOnly bool
	)
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Compile a .biff file into content pages and optionally build the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSiteConfig(a.configPath)
			if err != nil {
				return err
			}

			var opts story.Options
			if cfg.Story != nil {
				opts = cfg.Story.Options
				if !cmd.Flags().Changed("input") && cfg.Story.File != "" {
					input = cfg.Story.File
				}
			}
			if input != defaultStoryFile && opts.Dir == "" {
				base := filepath.Base(input)
				opts.Dir = strings.TrimSuffix(base, filepath.Ext(base))
			}
			biff := cfg.Path(input)
			contentDir := cfg.Path(cfg.Content)
			if output != "" {
				contentDir = cfg.Path(output)
			}

			n, err := story.Compile(biff, contentDir, opts)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("story file '%s' not found", biff)
				}
				return fmt.Errorf("biff compilation failed: %w", err)
			}
			fmt.Printf("📖 Story: %d knots processed into %s.\n", n, filepath.Join(contentDir, opts.Dir))
			if contentOnly {
				return nil
			}

			// Pages below the content directory are read back by the build;
			// pages anywhere else are injected.
			cfg.Story = nil
			if !within(contentDir, cfg.Path(cfg.Content)) {
				cfg.Story = &config.StoryConfig{File: input, Options: opts}
			}
			pages, err := a.build(cmd.Context(), cfg, true)
			if err != nil {
				return fmt.Errorf("site generation failed: %w", err)
			}
			fmt.Printf("✅ Build successful: %d files.\n", pages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", defaultStoryFile, "Input story file (*.biff).")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Directory to write the pages into, relative to the config. Defaults to the configured content directory.")
	cmd.Flags().BoolVar(&contentOnly, "content-only", false, "Generate content only, do not build the site.")
	return cmd
}

func within(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// build loads the template engine fresh, so template edits are picked up
// on every rebuild.
func (a *appConfig) build(ctx context.Context, cfg config.SiteConfig, clean bool) (int, error) {
	start := time.Now()
	e, err := engine.New(cfg.Engine, engine.Options{
		Dir:     cfg.Path(cfg.Templates),
		BaseURL: cfg.BaseURL,
		Unsafe:  cfg.Unsafe || a.unsafe,
		Logger:  slog.Default(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load templates: %w", err)
	}
	opts := cfg.BuildOptions(slog.Default())
	opts.Render = engine.RenderFunc(e)

	n, err := builder.BuildSite(ctx, cfg.SiteOptions(clean), opts)
	if err != nil {
		return 0, err
	}
	slog.Debug("build finished", logfields.Count(n), logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return n, nil
}
