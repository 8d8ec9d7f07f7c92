package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// OwnerHeader carries the acting owner's id on API requests.
const OwnerHeader = "X-Owner-ID"

type contextKey string

const contextKeyOwnerID contextKey = "ownerID"

// GetOwnerID returns the owner id injected by OwnerMiddleware, or "".
func GetOwnerID(r *http.Request) string {
	owner, _ := r.Context().Value(contextKeyOwnerID).(string)
	return owner
}

// OwnerMiddleware requires the owner header on every request and injects
// it into the request context.
func OwnerMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Always allow OPTIONS for CORS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
			if owner == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "owner id required"})
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyOwnerID, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs each request's method, path, status and duration.
func LoggingMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Printf("[api] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
		})
	}
}
