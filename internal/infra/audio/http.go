package audio

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"voice-assistant/internal/domain"
)

const (
	maxAudioBytes = 10 << 20
	maxTextBytes  = 4096
)

// HTTPSource queues utterances posted to /audio (raw audio) and /text
// (plain text, skipping transcription).
type HTTPSource struct {
	addr        string
	server      *http.Server
	queue       chan []byte
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		queue:       make(chan []byte, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
	}
	h.mux.HandleFunc("POST /audio", h.rateLimiter.Middleware(h.requireToken(h.handleAudio)))
	h.mux.HandleFunc("POST /text", h.rateLimiter.Middleware(h.requireToken(h.handleText)))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      otelhttp.NewHandler(h.mux, "http-source"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.logger.Info("HTTP audio server listening", "addr", ln.Addr().String())
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.queue)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-h.queue:
		if !ok {
			return nil, errors.New("http source stopped")
		}
		return data, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// InjectAudio queues data as if it had been posted, dropping it when the
// queue is full.
func (h *HTTPSource) InjectAudio(data []byte) {
	select {
	case h.queue <- data:
	default:
	}
}

// requireToken checks X-Auth-Token or the token query parameter when a
// token is configured.
func (h *HTTPSource) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) != 1 {
				h.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxAudioBytes)
	if !ok {
		return
	}
	h.enqueue(w, data, "audio", "bytes", len(data))
}

// handleText queues a typed utterance, which skips transcription.
func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxTextBytes)
	if !ok {
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}
	h.enqueue(w, []byte(domain.TextCommandPrefix+text), "text", "text", text)
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if len(data) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (h *HTTPSource) enqueue(w http.ResponseWriter, payload []byte, kind string, attrs ...any) {
	select {
	case h.queue <- payload:
		h.logger.Info("queued utterance", append([]any{"kind", kind}, attrs...)...)
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "kind": kind})
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	h.mu.Unlock()

	status, code := "ok", http.StatusOK
	if !running {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"running":    running,
		"queue_size": len(h.queue),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
