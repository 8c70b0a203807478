// Package preview serves build output over HTTP for the serve command.
// HTML pages get a live-reload script injected on the way out; a
// WebSocket hub tells connected pages when the fonts were rebuilt.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
)

// ReloadPath is the WebSocket endpoint the injected client connects to.
// The double underscore keeps it out of the way of served files.
const ReloadPath = "/__reload"

// Options configure the preview server.
type Options struct {
	// Root is the build output directory to serve.
	Root string

	// Host and Port form the listen address. They default to
	// localhost:8080.
	Host string
	Port int

	// IndexPages are tried in order when the root path is requested.
	// A plain file listing is served when none of them exists yet.
	IndexPages []string

	Logger logging.Logger
}

// Server serves one output directory with live reload.
type Server struct {
	opts   Options
	hub    *ReloadHub
	mux    *http.ServeMux
	logger logging.Logger
}

// New wires the route table and starts the reload hub.
func New(opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if len(opts.IndexPages) == 0 {
		opts.IndexPages = []string{"demo_fontclass.html", "demo_unicode.html"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		opts:   opts,
		hub:    NewReloadHub(logger),
		logger: logger.WithComponent("preview"),
	}

	mux := http.NewServeMux()
	mux.Handle(ReloadPath, s.hub)
	mux.HandleFunc("/", s.serveFile)
	s.mux = mux
	return s
}

// Handler exposes the route table. Start wires it into the listener;
// tests mount it on httptest servers.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// NotifyReload tells every connected page to refresh. Call it after a
// successful rebuild.
func (s *Server) NotifyReload(target string) {
	s.hub.Broadcast(ReloadMessage{Type: TypeReload, Target: target})
}

// NotifyFailure surfaces a failed rebuild in the browser console
// without reloading the page.
func (s *Server) NotifyFailure(detail string) {
	s.hub.Broadcast(ReloadMessage{Type: TypeBuildFailed, Detail: detail})
}

// ClientCount reports the number of connected preview pages.
func (s *Server) ClientCount() int { return s.hub.ClientCount() }

// Close releases the hub when the listener was never started. Start
// performs the same cleanup itself.
func (s *Server) Close() { s.hub.Shutdown() }

// Start runs the listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn(shutdownCtx, err, "preview server shutdown")
			}
		case <-stop:
		}
	}()

	s.logger.Info(ctx, "preview server listening", "url", "http://"+srv.Addr)
	err := srv.ListenAndServe()
	s.hub.Shutdown()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("preview server: %w", err)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Clean with a leading slash so ".." can never climb out of Root.
	rel := path.Clean("/" + r.URL.Path)
	if rel == "/" {
		for _, name := range s.opts.IndexPages {
			if _, err := os.Stat(filepath.Join(s.opts.Root, name)); err == nil {
				rel = "/" + name
				break
			}
		}
		if rel == "/" {
			s.serveListing(w, r)
			return
		}
	}

	full := filepath.Join(s.opts.Root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if strings.EqualFold(filepath.Ext(full), ".html") {
		s.serveHTML(w, r, full)
		return
	}
	http.ServeFile(w, r, full)
}

func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, full string) {
	doc, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	page, err := InjectReloadScript(doc, ReloadPath)
	if err != nil {
		s.logger.Warn(r.Context(), err, "reload script injection failed", "file", full)
		page = doc
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		s.logger.Debug(r.Context(), "writing preview page", "error", err.Error())
	}
}

// serveListing renders a bare file index for output directories that
// have no demo pages, with the reload script so the first successful
// build replaces it.
func (s *Server) serveListing(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.opts.Root)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>icon font preview</title></head><body>")
	b.WriteString("<h1>Build output</h1><ul>")
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fmt.Fprintf(&b, `<li><a href="/%s">%s</a></li>`,
			url.PathEscape(entry.Name()), html.EscapeString(entry.Name()))
	}
	b.WriteString("</ul></body></html>")

	page, err := InjectReloadScript([]byte(b.String()), ReloadPath)
	if err != nil {
		page = []byte(b.String())
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		s.logger.Debug(r.Context(), "writing preview listing", "error", err.Error())
	}
}
