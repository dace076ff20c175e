package middleware

import (
	"context"
	"net/http"

	"fuelserve/internal/shared/util"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestID generates or propagates X-Request-ID headers. The id is the
// correlation id attached to server-error logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID, _ = util.GenerateUUID()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
