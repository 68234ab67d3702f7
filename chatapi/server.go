// Package chatapi is an HTTP proxy that implements the kaiwa chat contract
// on top of an OpenAI-compatible chat completions endpoint.
package chatapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nathoo/kaiwa/protocol"
)

// maxRequestBody bounds an incoming chat request.
const maxRequestBody = 1 << 20

// Config holds the upstream settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Server answers POST /api/chat.
type Server struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a server. A nil client uses a client with cfg.Timeout; a nil
// logger falls back to slog.Default().
func New(cfg Config, client *http.Client, logger *slog.Logger) *Server {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, http: client, logger: logger}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.Post("/api/chat", s.handleChat)
	return r
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))

	if s.cfg.APIKey == "" {
		logger.Error("chat request rejected", "error", "OPENAI_API_KEY not configured")
		writeError(w, http.StatusInternalServerError, "OPENAI_API_KEY not configured")
		return
	}

	var req protocol.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.PlayerMessage) == "" {
		writeError(w, http.StatusBadRequest, "playerMessage is required")
		return
	}

	start := time.Now()
	content, err := s.complete(r.Context(), buildMessages(req))
	if err != nil {
		logger.Warn("upstream completion failed", "error", err, "elapsed", time.Since(start))
		if errors.Is(err, ErrEmptyContent) {
			writeError(w, http.StatusBadGateway, "Empty response from model")
			return
		}
		writeError(w, http.StatusBadGateway, "model request failed")
		return
	}

	resp, err := protocol.Decode([]byte(content))
	if err != nil {
		logger.Warn("model returned unusable content", "error", err)
		writeError(w, http.StatusBadGateway, "model returned malformed content")
		return
	}

	logger.Info("chat completed",
		"character", req.CharacterName,
		"history", len(req.History),
		"elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
