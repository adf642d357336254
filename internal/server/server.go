// internal/server/server.go
package server

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"minisite/internal/logfields"
)

// Options configures the development server.
type Options struct {
	Port      int
	OutputDir string
	// Watch lists directories and files whose changes trigger a rebuild.
	// Missing entries are ignored.
	Watch []string
	// Debounce is how long the tree must stay quiet before a rebuild.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = 1313
	}
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// BuildFunc rebuilds the whole site into the output directory.
type BuildFunc func(ctx context.Context) error

// Run builds the site, serves the output directory and rebuilds on change
// until ctx is cancelled. Connected browsers reload after each successful
// rebuild.
func Run(ctx context.Context, opts Options, build BuildFunc) error {
	opts = opts.withDefaults()
	logger := opts.Logger

	if err := build(ctx); err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	hub := newHub(logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	ws := &watchSet{watcher: watcher, seen: make(map[string]bool), logger: logger}
	for _, p := range opts.Watch {
		if err := ws.addTree(p); err != nil {
			return err
		}
	}

	rebuild := func() {
		start := time.Now()
		if err := build(ctx); err != nil {
			logger.Error("rebuild failed", logfields.Error(err))
			return
		}
		logger.Info("site rebuilt", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		hub.Broadcast([]byte("reload"))
	}
	go watchLoop(ctx, watcher.Events, watcher.Errors, opts.Debounce, ws.addCreated, rebuild, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           NewRouter(hub, opts.OutputDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving site", slog.String("url", fmt.Sprintf("http://localhost:%d", opts.Port)))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter serves outputDir with the live-reload script injected into
// HTML pages, and the reload socket at /ws.
func NewRouter(hub *Hub, outputDir string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", hub.serveWs)
	r.PathPrefix("/").Handler(liveReloadWrapper(http.FileServer(http.Dir(outputDir))))
	return r
}

type watchSet struct {
	watcher *fsnotify.Watcher
	seen    map[string]bool
	logger  *slog.Logger
}

func (w *watchSet) add(dir string) {
	dir = filepath.Clean(dir)
	if w.seen[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("could not watch directory", logfields.Path(dir), logfields.Error(err))
		return
	}
	w.logger.Debug("watching directory", logfields.Path(dir))
	w.seen[dir] = true
}

// addTree watches every directory below p. For a file, the parent
// directory is watched so that editors replacing the file are still seen.
func (w *watchSet) addTree(p string) error {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "could not stat path %s", p)
	}
	if !info.IsDir() {
		w.add(filepath.Dir(p))
		return nil
	}
	err = filepath.WalkDir(p, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			w.add(walkPath)
		}
		return nil
	})
	return errors.Wrapf(err, "failed to watch directory %s", p)
}

// addCreated picks up directories created after startup.
func (w *watchSet) addCreated(p string) {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		if err := w.addTree(p); err != nil {
			w.logger.Warn("could not watch new directory", logfields.Path(p), logfields.Error(err))
		}
	}
}

// watchLoop calls rebuild once events have stopped arriving for debounce.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, created func(string), rebuild func(), logger *slog.Logger) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) && created != nil {
				created(event.Name)
			}
			logger.Debug("change detected", logfields.Path(event.Name))
			timer.Reset(debounce)
		case <-timer.C:
			rebuild()
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func liveReloadWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		isHTML := strings.HasSuffix(r.URL.Path, ".html") || strings.HasSuffix(r.URL.Path, "/")
		if !isHTML {
			next.ServeHTTP(w, r)
			return
		}

		iw := newInterceptingWriter(w)
		next.ServeHTTP(iw, r)

		for key, values := range iw.Header() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		body := iw.body.Bytes()
		if iw.statusCode != http.StatusOK {
			w.WriteHeader(iw.statusCode)
			w.Write(body)
			return
		}

		injected := bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		w.Header().Set("Content-Length", fmt.Sprint(len(injected)))
		w.WriteHeader(iw.statusCode)
		w.Write(injected)
	})
}

type interceptingWriter struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
	header     http.Header
}

func newInterceptingWriter(w http.ResponseWriter) *interceptingWriter {
	return &interceptingWriter{
		ResponseWriter: w,
		body:           new(bytes.Buffer),
		header:         make(http.Header),
		statusCode:     http.StatusOK,
	}
}

func (iw *interceptingWriter) Header() http.Header {
	return iw.header
}

func (iw *interceptingWriter) Write(b []byte) (int, error) {
	return iw.body.Write(b)
}

func (iw *interceptingWriter) WriteHeader(statusCode int) {
	iw.statusCode = statusCode
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function(error) {
      console.error("Live reload connection error. Please restart 'minisite serve'.");
    };
  })();
</script>
`
