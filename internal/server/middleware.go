package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/justinas/alice"
	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestID returns the identifier assigned to the request by the middleware chain.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func (h *handler) middlewares() alice.Chain {
	chain := alice.New(
		requestIDMiddleware,
		h.loggingMiddleware,
		h.recoverMiddleware,
	)
	if h.limiter != nil {
		chain = chain.Append(h.limiter.middleware)
	}
	return chain
}

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(constants.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.logger.Info("request handled",
			zap.String("op", "server.loggingMiddleware"),
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic while handling request",
					zap.String("op", "server.recoverMiddleware"),
					zap.String("request_id", RequestID(r.Context())),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
