package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/server/ratelimit"
)

const (
	RequestIDHeader   = "X-Request-ID"
	maxRequestIDBytes = 64
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the ID withRequestID attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID reuses a caller supplied X-Request-ID or generates one, echoes
// it back and logs the finished request.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDBytes {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		s.logger.Info("request served",
			append(logger.RequestFields(id, ""),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)),
			)...,
		)
	})
}

// withRateLimit rejects clients over their budget. Health checks are never limited.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		client := ratelimit.ClientKey(r)
		if !s.limiter.Allow(client) {
			s.logger.Warn("rate limit exceeded",
				zap.String(logger.FieldRequestID, RequestID(r.Context())),
				zap.String("client", client),
			)
			w.Header().Set("Retry-After", "60")
			s.jsonResponse(w, http.StatusTooManyRequests, ErrorResponse{
				Error:     "rate_limit_exceeded",
				Message:   "rate limit exceeded, try again later",
				RequestID: RequestID(r.Context()),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
