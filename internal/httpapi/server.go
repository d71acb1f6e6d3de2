// Package httpapi exposes the validation pipeline over HTTP: a JSON
// validate endpoint, a health check, and a small test page at the root.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe"
	"github.com/optimode/mailprobe/types"
)

// Validator is the part of the pipeline the HTTP layer needs.
type Validator interface {
	Validate(ctx context.Context, email string, level types.Level) (mailprobe.Result, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// RequestTimeout bounds one validation request end to end. The
	// pipeline sees the deadline through the request context.
	RequestTimeout time.Duration
	Logger         *logrus.Logger
}

// Server holds the handlers.
type Server struct {
	validator Validator
	log       *logrus.Logger
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(v Validator, opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{validator: v, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Get("/health", s.handleHealth)
	})

	return r
}

type validateRequest struct {
	Email string `json:"email"`
	Level string `json:"validation_level"`
}

type validateResponse struct {
	Email    string   `json:"email"`
	Valid    bool     `json:"valid"`
	Level    string   `json:"validation_level"`
	Messages []string `json:"messages"`
}

// handleValidate runs the pipeline for one address. Verdicts, including
// a body the server could not parse, are 200 with valid true/false; 4xx
// is reserved for an unknown validation level.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, validateResponse{
			Level:    types.LevelBasic,
			Messages: []string{"invalid request body"},
		})
		return
	}

	result, err := s.validator.Validate(r.Context(), req.Email, req.Level)
	if err != nil {
		if errors.Is(err, mailprobe.ErrUnknownLevel) {
			writeJSON(w, http.StatusBadRequest, validateResponse{
				Email:    req.Email,
				Level:    req.Level,
				Messages: []string{"unknown validation_level, use \"basic\" or \"advanced\""},
			})
			return
		}
		s.log.WithError(err).Error("validation failed")
		writeJSON(w, http.StatusInternalServerError, validateResponse{
			Email:    req.Email,
			Messages: []string{"internal error"},
		})
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Email:    result.Email,
		Valid:    result.Valid,
		Level:    result.Level,
		Messages: result.Messages(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "mailprobe",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexPage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("request")
		})
	}
}
