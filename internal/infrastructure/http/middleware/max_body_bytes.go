package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

// payloadTooLargeJSON is a pre-marshaled error response for 413 Request
// Entity Too Large. Using a constant ensures we can always respond even if
// marshaling fails.
const payloadTooLargeJSON = `{"error":{"code":"PAYLOAD_TOO_LARGE","message":"request body exceeds size limit","details":[]}}`

// MaxBodyBytes creates a middleware that limits request body size.
// Uses a two-phase approach:
// 1. Fast path: Check Content-Length header for early rejection
// 2. Slow path: Read and verify body (handles chunked encoding and missing headers)
//
// Returns 413 Request Entity Too Large if the limit is exceeded.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Content-Length of -1 means unknown (chunked encoding), so
			// skip the fast path there.
			if r.ContentLength > 0 && r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				if _, err := w.Write([]byte(payloadTooLargeJSON)); err != nil {
					slog.ErrorContext(r.Context(), "failed to write payload too large response", "error", err)
				}
				return
			}

			// Content-Length can be missing or spoofed; MaxBytesReader
			// enforces the limit during the actual read.
			body := http.MaxBytesReader(w, r.Body, maxBytes)
			buf, err := io.ReadAll(body)

			if err != nil {
				slog.WarnContext(r.Context(), "request body size limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"content_length", r.ContentLength,
					"limit", maxBytes,
					"error", err)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				if _, err := w.Write([]byte(payloadTooLargeJSON)); err != nil {
					slog.ErrorContext(r.Context(), "failed to write payload too large response", "error", err)
				}
				return
			}

			// Body is within limit; replace it so handlers can read it.
			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}
