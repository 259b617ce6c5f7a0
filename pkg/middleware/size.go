package middleware

import (
	"net/http"

	apperrors "roomsync/pkg/errors"
	httputil "roomsync/pkg/http"
)

// MaxRequestSize caps the request body. A declared length over the limit is
// refused up front; otherwise decoding fails once the limit is crossed.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				_ = httputil.WriteError(w, apperrors.TooLarge(int(limit)))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
