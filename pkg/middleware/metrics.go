package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"roomsync/pkg/metrics"

	"github.com/julienschmidt/httprouter"
)

// Metrics records request counts and latency by route pattern, so ids in the
// path do not create one series per booking.
func Metrics(router *httprouter.Router) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if handle, ps, _ := router.Lookup(r.Method, r.URL.Path); handle != nil {
				route = routePattern(r.URL.Path, ps)
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(path string, ps httprouter.Params) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		for _, p := range ps {
			if seg != "" && seg == p.Value {
				segments[i] = ":" + p.Key
			}
		}
	}
	return strings.Join(segments, "/")
}
