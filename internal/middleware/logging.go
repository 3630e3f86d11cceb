package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// userIDKey is the context key for the authenticated user ID.
type userIDKey struct{}

// errorCodeKey is the context key for the error-code holder.
type errorCodeKey struct{}

// errorCodeHolder is mutable so a handler deep in the chain can report
// the code back to the logging middleware after the context has been
// derived. One holder per request; requests are handled on a single
// goroutine.
type errorCodeHolder struct {
	code string
}

// withErrorCode seeds the context with an empty error-code holder.
// Called by the Logging middleware at the top of each request.
func withErrorCode(ctx context.Context) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, &errorCodeHolder{})
}

// SetUserID stores the authenticated user ID in the context.
// Called by the auth middleware after validating the token.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID retrieves the authenticated user ID from context. Returns
// empty string if not present.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SetErrorCode records an error code for the logging middleware.
// Called by handlers when returning error responses; a no-op when the
// request did not pass through Logging.
func SetErrorCode(ctx context.Context, code string) {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		holder.code = code
	}
}

// GetErrorCode retrieves the recorded error code. Returns empty string
// if none was set.
func GetErrorCode(ctx context.Context) string {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		return holder.code
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code and
// response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader captures the status code before writing it. Only the
// first call sets the status code, matching http.ResponseWriter
// behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// newResponseWriter creates a responseWriter with default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// Production gets a JSON handler; everything else gets text at debug
// level for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging is a middleware that logs HTTP requests with structured
// fields: method, path, status, latency (ms), request ID, user ID (if
// authenticated), response size, and error_code for error responses.
//
// Note: if a handler panics, the log entry will not be written. Place a
// recovery middleware outside of the logging middleware to guarantee
// logging on panics.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			r = r.WithContext(withErrorCode(r.Context()))
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			if userID := GetUserID(r.Context()); userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			if rw.statusCode >= 400 {
				if errorCode := GetErrorCode(r.Context()); errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			if rw.statusCode >= 500 {
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			} else if rw.statusCode >= 400 {
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			} else {
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
