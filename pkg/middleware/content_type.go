package middleware

import (
	"mime"
	"net/http"
	"strings"

	apperrors "eatme/pkg/errors"
	"eatme/pkg/logger"
)

// ContentTypeValidation requires application/json on bodies, except for the path
// prefixes in allowMultipart which also accept multipart/form-data.
func ContentTypeValidation(log *logger.Logger, allowMultipart ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r.Method) {
				contentType := extractContentType(r.Header.Get("Content-Type"))

				if !acceptedContentType(contentType, r.URL.Path, allowMultipart) {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestIDFromContext(r.Context()),
						"content_type", contentType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					reject(w, log, apperrors.UnsupportedMediaType("Content-Type must be application/json"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.TrimSpace(strings.Split(header, ";")[0])
	}
	return mediaType
}

func acceptedContentType(contentType, path string, multipartPrefixes []string) bool {
	if contentType == "application/json" {
		return true
	}
	if contentType != "multipart/form-data" {
		return false
	}
	for _, prefix := range multipartPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
