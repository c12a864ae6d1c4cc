package server

import (
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// setupRoutes configures all HTTP handlers. Middlewares run outermost first:
// request IDs must exist before anything logs.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoverMiddleware, s.corsMiddleware)

	r.HandleFunc("/health", s.HandleHealth)
	r.HandleFunc("/advisor", s.HandleAdvisor)
	if s.cfg.Server.DebugAuth {
		r.HandleFunc("/debug-auth", s.HandleDebugAuth)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	return r
}

// corsMiddleware adds CORS headers using server.allowed_origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origins := s.cfg.GetServerAllowedOrigins()
	anyOrigin := slices.Contains(origins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Service-Token, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", headerRequestID)

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into a generic 500
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context(), s.logger).Errorw("Recovered panic in handler",
					logger.FieldPath, r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, advisor.MsgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware echoes a sane incoming X-Request-ID or assigns a new one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// loggingMiddleware logs one line per request. Bodies are never logged.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		log := logger.FromContext(r.Context(), s.logger.Named("http"))
		fields := []interface{}{
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, status,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
			logger.FieldRemoteAddr, r.RemoteAddr,
		}
		if status >= http.StatusInternalServerError {
			log.Warnw("Request completed", fields...)
			return
		}
		log.Infow("Request completed", fields...)
	})
}
