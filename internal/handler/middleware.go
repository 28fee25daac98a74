package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrpremium/go-storefront-service/internal/auth"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// requestLogging 请求日志
func requestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// limit 并发控制和请求超时
func (h *Handler) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 获取信号量
		select {
		case h.semaphore <- struct{}{}:
			defer func() { <-h.semaphore }()
		default:
			h.writeError(w, http.StatusServiceUnavailable, "Server is busy")
			return
		}

		// 设置超时
		ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
		defer cancel()

		next(w, r.WithContext(ctx))
	}
}

// requireAuth 校验 Bearer 令牌，把用户放进 context
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.auth.CurrentUser(r.Context(), token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next(w, r.WithContext(auth.WithUser(r.Context(), user)))
	}
}
