package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mroshb/friends_api/pkg/logger"
)

// RequestLogger logs one line per request after it completes
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		log := logger.With(
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"remote", clientIP(r),
		)
		fields := []interface{}{
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}

		switch {
		case status >= 500:
			log.Warnw("Request failed", fields...)
		default:
			log.Debugw("Request handled", fields...)
		}
	})
}
