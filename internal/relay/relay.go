// Package relay is a small CORS proxy that fetches public-domain texts on
// behalf of readers that cannot reach the library host directly.
package relay

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"
)

const (
	FetchTimeout = 30 * time.Second
	UserAgent    = "Mozilla/5.0 (compatible; limn-relay/1.0)"
	maxBody      = 64 << 20
)

// DefaultAllow matches the only upstream URLs the relay will fetch.
var DefaultAllow = regexp.MustCompile(`^https?://(www\.)?gutenberg\.org/`)

// Handler serves GET /?url=<upstream>.
type Handler struct {
	Client *http.Client
	Allow  *regexp.Regexp
	Logger *log.Logger
}

// New returns a Handler with the default allow list and timeout.
func New(logger *log.Logger) *Handler {
	return &Handler{
		Client: &http.Client{Timeout: FetchTimeout},
		Allow:  DefaultAllow,
		Logger: logger,
	}
}

func (h *Handler) infof(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf("[INFO] "+format, args...)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet, http.MethodHead:
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}
	allow := h.Allow
	if allow == nil {
		allow = DefaultAllow
	}
	if !allow.MatchString(target) {
		writeError(w, http.StatusForbidden, "Only Project Gutenberg URLs are allowed")
		return
	}

	body, err := h.fetch(r.Context(), target)
	if err != nil {
		h.infof("fetch %s: %v", target, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch content")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handler) fetch(ctx context.Context, target string) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

type statusError struct{ code int }

func (e *statusError) Error() string { return "upstream status " + http.StatusText(e.code) }

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusRecorder remembers the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// LogRequests logs one line per request to logger.
func LogRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logger.Printf("[INFO] %s %s %d %dB %s", r.Method, r.URL.RequestURI(), rec.status, rec.bytes,
			time.Since(start).Round(time.Millisecond))
	})
}
