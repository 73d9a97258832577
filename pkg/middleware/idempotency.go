package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"eatme/pkg/logger"
	"eatme/pkg/storage"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "eatme-idempotency"
	maxIdempotencyKey = 128
)

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored 2xx response for a repeated Idempotency-Key. Keys are
// scoped to the authenticated user, so two users sending the same key never collide.
// Store failures degrade to normal processing.
func Idempotency(store storage.Store, ttl time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(IdempotencyHeader)
			if header == "" || len(header) > maxIdempotencyKey || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := idempotencyKey(r, header)

			if cached, ok := loadCached(r.Context(), store, key, ttl, log); ok {
				replayCachedResponse(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}
			cached := CachedResponse{
				StatusCode: capture.statusCode,
				Headers:    w.Header().Clone(),
				Body:       capture.body.Bytes(),
				CreatedAt:  time.Now(),
			}
			if err := storage.SaveJSON(context.WithoutCancel(r.Context()), store, key, cached); err != nil {
				log.Warn("Failed to store idempotent response", "key", header, "error", err)
			}
		})
	}
}

func idempotencyKey(r *http.Request, header string) string {
	owner := "anonymous"
	if p, ok := PrincipalFromContext(r.Context()); ok {
		owner = p.UID
	}
	return idempotencyPrefix + ":" + owner + ":" + r.Method + ":" + r.URL.Path + ":" + header
}

func loadCached(ctx context.Context, store storage.Store, key string, ttl time.Duration, log *logger.Logger) (*CachedResponse, bool) {
	var cached CachedResponse
	if err := storage.LoadJSON(ctx, store, key, &cached); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("Failed to read idempotent response", "error", err)
		}
		return nil, false
	}
	if time.Since(cached.CreatedAt) > ttl {
		_ = store.Delete(ctx, key)
		return nil, false
	}
	return &cached, true
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
