package preview

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed assets/index.html assets/app.js assets/templates/*.css
var assets embed.FS

// Templates lists the templates the page can render, sorted.
var Templates = []string{
	"azurill", "bronzor", "chikorita", "ditto", "gengar", "glalie",
	"kakuna", "leafish", "nosepass", "onyx", "pikachu", "rhyhorn",
}

const (
	maxMarkdownBody = 1 << 20
	shutdownTimeout = 5 * time.Second
	readTimeout     = 10 * time.Second
)

// Asset returns an embedded asset by its path below assets/, such as
// "app.js" or "templates/onyx.css".
func Asset(name string) ([]byte, error) {
	return assets.ReadFile("assets/" + name)
}

type server struct {
	logger    *log.Logger
	markdown  *markdownRenderer
	chromaCSS []byte
}

// NewHandler returns the preview server's HTTP handler.
// A nil logger discards output.
func NewHandler(logger *log.Logger) (http.Handler, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var css bytes.Buffer
	if err := writeChromaCSS(&css); err != nil {
		return nil, fmt.Errorf("generating highlight stylesheet: %w", err)
	}

	s := &server{
		logger:    logger,
		markdown:  newMarkdownRenderer(),
		chromaCSS: css.Bytes(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/", s.serveAsset("index.html", "text/html; charset=utf-8"))
	r.Get("/assets/app.js", s.serveAsset("app.js", "text/javascript; charset=utf-8"))
	r.Get("/assets/chroma.css", s.handleChromaCSS)
	r.Get("/assets/templates/{file}", s.handleTemplateCSS)
	r.Post("/api/markdown", s.handleMarkdown)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	return r, nil
}

func (s *server) serveAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := Asset(name)
		if err != nil {
			s.logger.Error("reading asset", "name", name, "err", err)
			http.Error(w, "asset unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}

func (s *server) handleChromaCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(s.chromaCSS)
}

func (s *server) handleTemplateCSS(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".css")
	if !ok || !slices.Contains(Templates, name) {
		http.NotFound(w, r)
		return
	}
	s.serveAsset("templates/"+name+".css", "text/css; charset=utf-8")(w, r)
}

type markdownRequest struct {
	Markdown string `json:"markdown"`
}

type markdownResponse struct {
	HTML string `json:"html"`
}

func (s *server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	var req markdownRequest
	body := http.MaxBytesReader(w, r.Body, maxMarkdownBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	out, err := s.markdown.Render(r.Context(), req.Markdown)
	if err != nil {
		s.logger.Warn("rendering markdown", "err", err)
		http.Error(w, "markdown conversion failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(markdownResponse{HTML: out})
}

// requestLogger logs one debug line per request.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

// ListenAndServe serves the preview page on addr until ctx is done, then
// shuts down gracefully. Once listening it prints "Local: <url>" to stdout,
// the line a process supervisor can wait for.
func ListenAndServe(ctx context.Context, addr string, logger *log.Logger, stdout io.Writer) error {
	handler, err := NewHandler(logger)
	if err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	if _, err := fmt.Fprintf(stdout, "Local: http://%s/\n", ln.Addr()); err != nil {
		_ = srv.Close()
		return err
	}

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
